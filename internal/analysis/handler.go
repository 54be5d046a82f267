package analysis

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"heatpump-backend/internal/shared/server/middleware"
	"heatpump-backend/internal/shared/server/respond"
	"heatpump-backend/internal/sizing"
)

const (
	DefaultMaxUploadBytes = 16 << 20
	multipartOverhead     = 1 << 20
)

// formFields are the multipart field names accepted for the document.
var formFields = []string{"file", "pdf_file"}

// ProviderStatus describes the configured extraction provider.
type ProviderStatus struct {
	Provider   string
	Model      string
	Configured bool
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
	Provider       ProviderStatus
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64, provider ProviderStatus) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes, Provider: provider}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze-pdf", h.analyze)
	rg.POST("/calculate", h.calculate)
	rg.GET("/pdf-status", h.status)
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)

	fileHeader, err := formFile(c)
	if err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "no file uploaded, send it in the 'file' field", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		h.tooLarge(c)
		return
	}

	fileName, err := ValidateFileName(fileHeader.Filename)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(middleware.FileNameKey, fileName)

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	if int64(len(data)) > h.MaxUploadBytes {
		h.tooLarge(c)
		return
	}

	report, err := h.Svc.Analyze(c.Request.Context(), fileName, data)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set(middleware.AnalysisIDKey, report.AnalysisID)
	c.Set(middleware.MethodUsedKey, string(report.PowerCalculation.Method))

	message := "Document analysed successfully"
	if report.ProcessingStatus == StatusFallback {
		message = "Automatic analysis unavailable, enter the building data manually"
	}
	respond.Success(c, report, message)
}

func (h *Handler) calculate(c *gin.Context) {
	var fields sizing.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	result := h.Svc.Calculate(fields)
	c.Set(middleware.MethodUsedKey, string(result.Method))
	respond.Success(c, gin.H{
		"input":             fields,
		"power_calculation": result,
		"timestamp":         h.Svc.now().UTC().Format(time.RFC3339),
	}, "")
}

func (h *Handler) status(c *gin.Context) {
	respond.Success(c, gin.H{
		"pdf_analyzer_available": h.Provider.Configured,
		"llm_configured":         h.Provider.Configured,
		"provider":               h.Provider.Provider,
		"model":                  h.Provider.Model,
		"max_upload_bytes":       h.MaxUploadBytes,
	}, "")
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		respond.Error(c, http.StatusBadRequest, "unsupported_file_type", "only PDF and DOCX files are accepted", nil)
	case errors.Is(err, ErrInvalidUpload):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNoText):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed",
			"could not read text from the document, it may be scanned or empty; enter the data manually", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to analyse document", nil)
	}
}

func (h *Handler) tooLarge(c *gin.Context) {
	respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", gin.H{
		"max_upload_bytes": h.MaxUploadBytes,
	})
}

func formFile(c *gin.Context) (*multipart.FileHeader, error) {
	var lastErr error
	for _, field := range formFields {
		fh, err := c.FormFile(field)
		if err == nil {
			return fh, nil
		}
		if isTooLarge(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
