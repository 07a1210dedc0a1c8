package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
	"github.com/shoplens/backend/internal/usecase"
)

const (
	serviceName          = "shoplens-backend"
	serviceVersion       = "1.0.0"
	defaultMaxUploadMB   = 10
	imageFormField       = "image"
	searchQueryFormField = "search_query"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	shoppingService *usecase.ShoppingService
	maxUploadBytes  int64
}

// NewHandler creates a new HTTP handler. A nil service answers 503 on every
// shopping endpoint.
func NewHandler(shoppingService *usecase.ShoppingService, maxUploadMB int64) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = defaultMaxUploadMB
	}
	return &Handler{
		shoppingService: shoppingService,
		maxUploadBytes:  maxUploadMB << 20,
	}
}

// searchRequest is the body of a text search
type searchRequest struct {
	Query string `json:"query"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	sources := []string{}
	if h.shoppingService != nil {
		sources = h.shoppingService.Sources()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
		"sources": sources,
	})
}

// Identify handles POST /api/v1/identify: detect products in the uploaded
// image and search retailers for each one.
func (h *Handler) Identify(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.shoppingService.IdentifyAndSearch(c.Request.Context(), image)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, result)
}

// Search handles POST /api/v1/search with a JSON {"query": "..."} body
func (h *Handler) Search(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.shoppingService.SearchByText(c.Request.Context(), req.Query)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, result)
}

// UploadSearch handles POST /api/v1/upload-search. With a search_query form
// field the query drives the search; without one the image is identified first.
func (h *Handler) UploadSearch(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	query := strings.TrimSpace(c.PostForm(searchQueryFormField))
	if query == "" {
		result, err := h.shoppingService.IdentifyAndSearch(c.Request.Context(), image)
		if err != nil {
			h.respondError(c, err)
			return
		}
		respondOK(c, result)
		return
	}

	result, err := h.shoppingService.SearchImageWithQuery(c.Request.Context(), image, query)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, result)
}

// ComparePrices handles POST /api/v1/price
func (h *Handler) ComparePrices(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req domain.PriceComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "Product name is required")
		return
	}

	result, err := h.shoppingService.ComparePrices(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, result)
}

// ProductDetails handles GET /api/v1/products/details?url=...
func (h *Handler) ProductDetails(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	details, err := h.shoppingService.ProductDetails(c.Request.Context(), c.Query("url"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, details)
}

// ready writes a 503 when the handler was built without a service
func (h *Handler) ready(c *gin.Context) bool {
	if h.shoppingService == nil {
		respondFailure(c, http.StatusServiceUnavailable, "Shopping service not configured")
		return false
	}
	return true
}

// readImage returns the bytes of the multipart image field
func (h *Handler) readImage(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile(imageFormField)
	if err != nil {
		return nil, fmt.Errorf("%w: no image file provided", domain.ErrInvalidInput)
	}
	if header.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("%w: image exceeds %d MB", domain.ErrInvalidInput, h.maxUploadBytes>>20)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable image file", domain.ErrInvalidInput)
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable image file", domain.ErrInvalidInput)
	}
	return image, nil
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		respondFailure(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCircuitOpen),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrSourceUnreachable):
		logging.Ctx(c.Request.Context()).Warn().Err(err).Str("path", c.Request.URL.Path).Msg("retailer unavailable")
		respondFailure(c, http.StatusBadGateway, "Retailer temporarily unavailable")
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		respondFailure(c, http.StatusInternalServerError, "Internal server error")
	}
}

func respondOK(c *gin.Context, results interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}

func respondFailure(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
