package domain

// SignalSource identifies which capability provider produced a signal
type SignalSource string

const (
	SourceObjectDetector  SignalSource = "ObjectDetector"
	SourceCaption         SignalSource = "Caption"
	SourceTextRecognition SignalSource = "TextRecognition"
)

// BoundingBox is the pixel rectangle reported by the object detector
type BoundingBox struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// ObjectDetection is a single raw prediction from the object detector
type ObjectDetection struct {
	Label      string      `json:"name"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// RecognizedText is a single text fragment from the text recognizer
type RecognizedText struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// DetectionSignal is one provider observation that contributed to an identity
type DetectionSignal struct {
	Source     SignalSource `json:"source"`
	Label      string       `json:"label"`
	Confidence float64      `json:"confidence"`
}

// Category is a coarse product category
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryHome        Category = "home"
	CategoryKitchen     Category = "kitchen"
	CategorySports      Category = "sports"
	CategoryBooks       Category = "books"
	CategoryToys        Category = "toys"
	CategoryBeauty      Category = "beauty"
	CategoryGeneral     Category = "general"
)

// CategoryOrder is the fixed enumeration order used for keyword lookups.
// General is the fallback and has no keywords.
var CategoryOrder = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHome,
	CategoryKitchen,
	CategorySports,
	CategoryBooks,
	CategoryToys,
	CategoryBeauty,
}

// CategoryKeywords maps each category to the product words that identify it
var CategoryKeywords = map[Category][]string{
	CategoryElectronics: {"phone", "smartphone", "laptop", "computer", "tablet", "camera", "headphones", "speaker", "watch", "smartwatch", "tv", "monitor"},
	CategoryClothing:    {"shirt", "t-shirt", "dress", "pants", "jeans", "jacket", "coat", "shoes", "sneakers", "boots", "hat", "cap"},
	CategoryHome:        {"chair", "table", "sofa", "bed", "lamp", "cushion", "pillow", "curtain", "rug", "vase", "clock"},
	CategoryKitchen:     {"bottle", "cup", "mug", "plate", "bowl", "spoon", "fork", "knife", "pot", "pan"},
	CategorySports:      {"ball", "football", "basketball", "tennis", "racket", "bike", "bicycle", "weights", "dumbbells"},
	CategoryBooks:       {"book", "notebook", "journal", "magazine", "newspaper"},
	CategoryToys:        {"toy", "doll", "car", "truck", "puzzle", "game"},
	CategoryBeauty:      {"perfume", "lipstick", "makeup", "brush", "mirror", "cream", "lotion"},
}

// CandidateIdentity is a hypothesized product derived from fused detection signals
type CandidateIdentity struct {
	Name            string            `json:"name"`
	Category        Category          `json:"category"`
	Confidence      float64           `json:"confidence"`
	DetectionMethod SignalSource      `json:"detectionMethod"`
	OriginSignals   []DetectionSignal `json:"originSignals"`
}
