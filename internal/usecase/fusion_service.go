package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shoplens/backend/internal/domain"
)

// Fusion defaults
const (
	defaultConfidenceFloor   = 0.3 // Detections at or below are noise
	defaultCaptionConfidence = 0.7 // Captions carry no native score
)

var (
	// modelNumberRegex finds a model-number-like token inside an OCR fragment
	modelNumberRegex = regexp.MustCompile(`\b[A-Z0-9]{3,10}\b`)

	// identifierTokenRegex matches a whole OCR word that looks like an identifier
	identifierTokenRegex = regexp.MustCompile(`^[A-Z0-9]{2,}$`)
)

// defaultKnownBrands is matched case-insensitively against OCR fragments
var defaultKnownBrands = []string{
	"apple", "samsung", "sony", "lg", "nike", "adidas", "canon", "nikon",
	"hp", "dell", "lenovo", "asus", "acer", "microsoft", "google", "amazon",
	"xiaomi", "oppo", "vivo", "oneplus", "huawei", "realme", "nokia",
}

// FusionConfig holds configuration for signal fusion
type FusionConfig struct {
	ConfidenceFloor   float64
	CaptionConfidence float64
	KnownBrands       []string
}

// FusionService combines detector, caption and OCR output into candidate identities
type FusionService struct {
	confidenceFloor   float64
	captionConfidence float64
	knownBrands       []string
}

// NewFusionService creates a fusion service, applying defaults for zero values
func NewFusionService(config FusionConfig) *FusionService {
	floor := config.ConfidenceFloor
	if floor <= 0 {
		floor = defaultConfidenceFloor
	}

	captionConfidence := config.CaptionConfidence
	if captionConfidence <= 0 {
		captionConfidence = defaultCaptionConfidence
	}

	brands := config.KnownBrands
	if len(brands) == 0 {
		brands = defaultKnownBrands
	}
	lowered := make([]string, len(brands))
	for i, b := range brands {
		lowered[i] = strings.ToLower(b)
	}

	return &FusionService{
		confidenceFloor:   floor,
		captionConfidence: captionConfidence,
		knownBrands:       lowered,
	}
}

// Fuse merges the three provider outputs into an ordered list of candidates.
// Detector-derived identities come first in detection order, then caption-derived
// ones. OCR never adds candidates; it only enriches names.
func (s *FusionService) Fuse(
	detections []domain.ObjectDetection,
	caption string,
	texts []domain.RecognizedText,
) []domain.CandidateIdentity {
	candidates := make([]domain.CandidateIdentity, 0)
	seen := make(map[string]bool)

	for _, det := range detections {
		name := strings.ToLower(strings.TrimSpace(det.Label))
		if name == "" || det.Confidence <= s.confidenceFloor || seen[name] {
			continue
		}
		seen[name] = true

		candidate := domain.CandidateIdentity{
			Name:            name,
			Category:        Categorize(name),
			Confidence:      det.Confidence,
			DetectionMethod: domain.SourceObjectDetector,
			OriginSignals: []domain.DetectionSignal{{
				Source:     domain.SourceObjectDetector,
				Label:      det.Label,
				Confidence: det.Confidence,
			}},
		}
		appendIdentifierTokens(&candidate, texts)
		candidates = append(candidates, candidate)
	}

	for _, keyword := range extractCaptionKeywords(caption) {
		if seen[keyword] {
			continue
		}
		seen[keyword] = true

		candidate := domain.CandidateIdentity{
			Name:            keyword,
			Category:        Categorize(keyword),
			Confidence:      s.captionConfidence,
			DetectionMethod: domain.SourceCaption,
			OriginSignals: []domain.DetectionSignal{{
				Source:     domain.SourceCaption,
				Label:      keyword,
				Confidence: s.captionConfidence,
			}},
		}
		appendIdentifierTokens(&candidate, texts)
		candidates = append(candidates, candidate)
	}

	brand, model, source := s.extractBrandInfo(texts)
	if brand == "" && model == "" {
		return candidates
	}

	for i := range candidates {
		if brand != "" {
			candidates[i].Name = brand + " " + candidates[i].Name
		}
		if model != "" {
			candidates[i].Name = candidates[i].Name + " " + model
		}
		candidates[i].OriginSignals = append(candidates[i].OriginSignals, source...)
	}

	return candidates
}

// Categorize returns the first category, in CategoryOrder, owning a keyword
// that appears inside name. Defaults to general.
func Categorize(name string) domain.Category {
	name = strings.ToLower(name)
	for _, category := range domain.CategoryOrder {
		for _, keyword := range domain.CategoryKeywords[category] {
			if strings.Contains(name, keyword) {
				return category
			}
		}
	}
	return domain.CategoryGeneral
}

// extractCaptionKeywords returns category keywords present as caption tokens,
// in category order then keyword order, without repeats.
func extractCaptionKeywords(caption string) []string {
	if strings.TrimSpace(caption) == "" {
		return nil
	}

	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(caption)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) && r != '-'
		})
		if word != "" {
			tokens[word] = true
		}
	}

	var keywords []string
	added := make(map[string]bool)
	for _, category := range domain.CategoryOrder {
		for _, keyword := range domain.CategoryKeywords[category] {
			if tokens[keyword] && !added[keyword] {
				keywords = append(keywords, keyword)
				added[keyword] = true
			}
		}
	}
	return keywords
}

// appendIdentifierTokens appends OCR words that look like identifiers
// (e.g. "S21", "WH1000XM4") and are not yet part of the candidate's name.
func appendIdentifierTokens(candidate *domain.CandidateIdentity, texts []domain.RecognizedText) {
	for _, text := range texts {
		contributed := false
		for _, word := range strings.Fields(text.Text) {
			if len(word) > 10 || !identifierTokenRegex.MatchString(word) {
				continue
			}
			if strings.Contains(strings.ToLower(candidate.Name), strings.ToLower(word)) {
				continue
			}
			candidate.Name = candidate.Name + " " + word
			contributed = true
		}
		if contributed {
			candidate.OriginSignals = append(candidate.OriginSignals, domain.DetectionSignal{
				Source:     domain.SourceTextRecognition,
				Label:      text.Text,
				Confidence: text.Confidence,
			})
		}
	}
	candidate.Name = strings.TrimSpace(candidate.Name)
}

// extractBrandInfo scans OCR fragments once. The first known brand and the first
// model-number token found win. The returned signals are the fragments they came from.
func (s *FusionService) extractBrandInfo(texts []domain.RecognizedText) (string, string, []domain.DetectionSignal) {
	var brand, model string
	var sources []domain.DetectionSignal

	for _, text := range texts {
		contributed := false
		if brand == "" {
			lower := strings.ToLower(text.Text)
			for _, b := range s.knownBrands {
				if b != "" && strings.Contains(lower, b) {
					brand = titleCase(b)
					contributed = true
					break
				}
			}
		}
		if model == "" {
			if match := modelNumberRegex.FindString(text.Text); match != "" {
				model = match
				contributed = true
			}
		}
		if contributed {
			sources = append(sources, domain.DetectionSignal{
				Source:     domain.SourceTextRecognition,
				Label:      text.Text,
				Confidence: text.Confidence,
			})
		}
		if brand != "" && model != "" {
			break
		}
	}

	return brand, model, sources
}

// titleCase upper-cases the first letter of each word
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
