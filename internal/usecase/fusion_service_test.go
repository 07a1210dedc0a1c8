package usecase

import (
	"testing"

	"github.com/shoplens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFusionService(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		s := NewFusionService(FusionConfig{})
		assert.Equal(t, 0.3, s.confidenceFloor)
		assert.Equal(t, 0.7, s.captionConfidence)
		assert.Contains(t, s.knownBrands, "samsung")
	})

	t.Run("lowercases custom brands", func(t *testing.T) {
		s := NewFusionService(FusionConfig{KnownBrands: []string{"Bose"}})
		assert.Equal(t, []string{"bose"}, s.knownBrands)
	})
}

func TestFuse_ConfidenceFloor(t *testing.T) {
	s := NewFusionService(FusionConfig{})

	detections := []domain.ObjectDetection{
		{Label: "bottle", Confidence: 0.30},
		{Label: "laptop", Confidence: 0.31},
	}

	got := s.Fuse(detections, "", nil)

	require.Len(t, got, 1)
	assert.Equal(t, "laptop", got[0].Name)
	assert.Equal(t, 0.31, got[0].Confidence)
	assert.Equal(t, domain.SourceObjectDetector, got[0].DetectionMethod)
	assert.Equal(t, domain.CategoryElectronics, got[0].Category)
}

func TestFuse_CaptionKeywords(t *testing.T) {
	s := NewFusionService(FusionConfig{})

	got := s.Fuse(nil, "A person holding a laptop, and a coffee mug.", nil)

	require.Len(t, got, 2)
	assert.Equal(t, "laptop", got[0].Name)
	assert.Equal(t, "mug", got[1].Name)
	for _, c := range got {
		assert.Equal(t, 0.7, c.Confidence)
		assert.Equal(t, domain.SourceCaption, c.DetectionMethod)
		require.Len(t, c.OriginSignals, 1)
		assert.Equal(t, domain.SourceCaption, c.OriginSignals[0].Source)
	}
	assert.Equal(t, domain.CategoryKitchen, got[1].Category)
}

func TestFuse_DetectorBeforeCaptionWithoutRepeats(t *testing.T) {
	s := NewFusionService(FusionConfig{})

	detections := []domain.ObjectDetection{
		{Label: "Laptop", Confidence: 0.9},
		{Label: "laptop", Confidence: 0.8},
	}

	got := s.Fuse(detections, "a laptop next to a book", nil)

	require.Len(t, got, 2)
	assert.Equal(t, "laptop", got[0].Name)
	assert.Equal(t, 0.9, got[0].Confidence)
	assert.Equal(t, domain.SourceObjectDetector, got[0].DetectionMethod)
	assert.Equal(t, "book", got[1].Name)
	assert.Equal(t, domain.CategoryBooks, got[1].Category)
}

func TestFuse_BrandAndModelEnrichment(t *testing.T) {
	s := NewFusionService(FusionConfig{})

	detections := []domain.ObjectDetection{{Label: "cell phone", Confidence: 0.9}}
	texts := []domain.RecognizedText{
		{Text: "Samsung", Confidence: 0.9},
		{Text: "S21", Confidence: 0.8},
	}

	got := s.Fuse(detections, "", texts)

	require.Len(t, got, 1)
	assert.Equal(t, "Samsung cell phone S21 S21", got[0].Name)
	assert.Equal(t, domain.CategoryElectronics, got[0].Category)

	var ocrLabels []string
	for _, sig := range got[0].OriginSignals {
		if sig.Source == domain.SourceTextRecognition {
			ocrLabels = append(ocrLabels, sig.Label)
		}
	}
	assert.Contains(t, ocrLabels, "Samsung")
	assert.Contains(t, ocrLabels, "S21")
}

func TestFuse_EnrichmentAppliedEvenWhenNameContainsBrand(t *testing.T) {
	s := NewFusionService(FusionConfig{})

	got := s.Fuse(
		[]domain.ObjectDetection{{Label: "apple", Confidence: 0.9}},
		"",
		[]domain.RecognizedText{{Text: "apple store", Confidence: 0.9}},
	)

	require.Len(t, got, 1)
	assert.Equal(t, "Apple apple", got[0].Name)
}

func TestFuse_OCRNeverAddsCandidates(t *testing.T) {
	s := NewFusionService(FusionConfig{})

	got := s.Fuse(nil, "", []domain.RecognizedText{{Text: "SONY WH1000XM4", Confidence: 0.95}})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFuse_EmptyInputs(t *testing.T) {
	s := NewFusionService(FusionConfig{})

	got := s.Fuse(nil, "   ", nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFuse_Deterministic(t *testing.T) {
	s := NewFusionService(FusionConfig{})

	detections := []domain.ObjectDetection{
		{Label: "chair", Confidence: 0.6},
		{Label: "cup", Confidence: 0.5},
	}
	texts := []domain.RecognizedText{{Text: "IKEA 2024", Confidence: 0.9}}

	first := s.Fuse(detections, "a chair and a lamp", texts)
	second := s.Fuse(detections, "a chair and a lamp", texts)

	assert.Equal(t, first, second)
}

func TestCategorize(t *testing.T) {
	testCases := []struct {
		name string
		want domain.Category
	}{
		{"laptop", domain.CategoryElectronics},
		{"Smart Watch", domain.CategoryElectronics},
		{"running shoes", domain.CategoryClothing},
		{"coffee mug", domain.CategoryKitchen},
		{"tennis racket", domain.CategorySports},
		{"face cream", domain.CategoryBeauty},
		{"widget", domain.CategoryGeneral},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.name))
		})
	}
}
