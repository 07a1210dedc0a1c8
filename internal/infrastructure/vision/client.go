package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
)

const defaultMinTextConfidence = 0.5

// Config holds the inference service endpoints. An empty URL leaves that
// capability unavailable.
type Config struct {
	DetectorURL       string
	CaptionURL        string
	OCRURL            string
	Timeout           time.Duration
	MinTextConfidence float64 // OCR fragments at or below this are dropped
}

// Client talks to the HTTP inference services. It implements
// domain.ObjectDetector, domain.CaptionGenerator and domain.TextRecognizer.
type Client struct {
	httpClient        *http.Client
	detectorURL       string
	captionURL        string
	ocrURL            string
	minTextConfidence float64
}

// NewClient creates a new inference client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	minConfidence := cfg.MinTextConfidence
	if minConfidence <= 0 {
		minConfidence = defaultMinTextConfidence
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		detectorURL:       strings.TrimSpace(cfg.DetectorURL),
		captionURL:        strings.TrimSpace(cfg.CaptionURL),
		ocrURL:            strings.TrimSpace(cfg.OCRURL),
		minTextConfidence: minConfidence,
	}
}

type detectionPayload struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	XMin       float64 `json:"xmin"`
	YMin       float64 `json:"ymin"`
	XMax       float64 `json:"xmax"`
	YMax       float64 `json:"ymax"`
}

type detectResponse struct {
	Detections []detectionPayload `json:"detections"`
}

type captionResponse struct {
	Caption string `json:"caption"`
}

type ocrResponse struct {
	Texts []domain.RecognizedText `json:"texts"`
}

// DetectObjects returns every raw detection; the confidence floor is applied during fusion
func (c *Client) DetectObjects(ctx context.Context, image []byte) ([]domain.ObjectDetection, error) {
	var resp detectResponse
	if err := c.postImage(ctx, "detector", c.detectorURL, image, &resp); err != nil {
		return nil, err
	}

	detections := make([]domain.ObjectDetection, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		detections = append(detections, domain.ObjectDetection{
			Label:      d.Name,
			Confidence: d.Confidence,
			Box:        domain.BoundingBox{XMin: d.XMin, YMin: d.YMin, XMax: d.XMax, YMax: d.YMax},
		})
	}
	return detections, nil
}

// Caption returns a one-sentence description of the image
func (c *Client) Caption(ctx context.Context, image []byte) (string, error) {
	var resp captionResponse
	if err := c.postImage(ctx, "caption", c.captionURL, image, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Caption), nil
}

// RecognizeText returns text fragments above the minimum confidence
func (c *Client) RecognizeText(ctx context.Context, image []byte) ([]domain.RecognizedText, error) {
	var resp ocrResponse
	if err := c.postImage(ctx, "ocr", c.ocrURL, image, &resp); err != nil {
		return nil, err
	}

	texts := make([]domain.RecognizedText, 0, len(resp.Texts))
	for _, t := range resp.Texts {
		text := strings.TrimSpace(t.Text)
		if text == "" || t.Confidence <= c.minTextConfidence {
			continue
		}
		texts = append(texts, domain.RecognizedText{Text: text, Confidence: t.Confidence})
	}
	return texts, nil
}

// postImage sends the raw image bytes and decodes the JSON reply into dest
func (c *Client) postImage(ctx context.Context, capability, endpoint string, image []byte, dest interface{}) error {
	if endpoint == "" {
		return fmt.Errorf("%w: %s endpoint not configured", domain.ErrProviderUnavailable, capability)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("%w: %s: failed to create request: %v", domain.ErrProviderUnavailable, capability, err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(image))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ShopLens/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrProviderUnavailable, capability, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrProviderUnavailable, capability, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %v", domain.ErrProviderUnavailable, capability, err)
	}

	logging.Ctx(ctx).Debug().
		Str("capability", capability).
		Dur("elapsed", time.Since(start)).
		Msg("inference call finished")
	return nil
}
