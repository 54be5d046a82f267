package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"heatpump-backend/internal/extract"
	"heatpump-backend/internal/llm"
	"heatpump-backend/internal/shared/metrics"
	"heatpump-backend/internal/shared/telemetry"
	"heatpump-backend/internal/shared/util"
	"heatpump-backend/internal/sizing"
)

const (
	DefaultMaxPromptChars = 12000
	MinTextChars          = 10
	TruncationMarker      = "\n\n[TEXT TRUNCATED]"
)

// Processing statuses reported in the response.
const (
	StatusCompleted = "completed"
	StatusFallback  = "fallback"
)

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, fileName string) (string, error)
}

// Service runs the document to recommendation pipeline. Nothing is persisted.
type Service struct {
	Extractor      TextExtractor
	LLM            llm.Client
	Catalog        sizing.Catalog
	MaxPromptChars int
	Now            func() time.Time
}

// Report is the payload of a successful analysis.
type Report struct {
	AnalysisID       string         `json:"analysis_id"`
	FileName         string         `json:"file_name"`
	PDFAnalysis      llm.Extraction `json:"pdf_analysis"`
	PowerCalculation sizing.Result  `json:"power_calculation"`
	ProcessingStatus string         `json:"processing_status"`
	TextLength       int            `json:"text_length"`
	Truncated        bool           `json:"truncated"`
	Timestamp        string         `json:"timestamp"`
}

// ValidateFileName sanitizes name and checks its extension against the
// accepted document types.
func ValidateFileName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: file name is required", ErrInvalidUpload)
	}
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	if _, ok := extract.Extensions[util.Ext(clean)]; !ok {
		return "", fmt.Errorf("%w: only PDF and DOCX files are accepted", ErrUnsupportedType)
	}
	return clean, nil
}

// Analyze extracts text from the document, asks the LLM for sizing fields and
// runs the engine. LLM failures never fail the request; the fallback
// extraction is used instead.
func (s *Service) Analyze(ctx context.Context, fileName string, data []byte) (Report, error) {
	start := time.Now()
	metrics.IncAnalysisStarted()

	report, err := s.analyze(ctx, fileName, data)
	if err != nil {
		metrics.IncAnalysisFailed()
		return Report{}, err
	}
	metrics.IncAnalysisCompleted()
	metrics.IncSizingMethod(string(report.PowerCalculation.Method))
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Milliseconds()))
	return report, nil
}

func (s *Service) analyze(ctx context.Context, fileName string, data []byte) (Report, error) {
	clean, err := ValidateFileName(fileName)
	if err != nil {
		return Report{}, err
	}
	if len(data) == 0 {
		return Report{}, fmt.Errorf("%w: file is empty", ErrInvalidUpload)
	}
	if s.Extractor == nil {
		return Report{}, errors.New("text extractor not configured")
	}

	analysisID := uuid.NewString()

	text, err := s.Extractor.ExtractText(ctx, data, clean)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) {
			return Report{}, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Report{}, err
		}
		telemetry.Warn("analysis.extract_failed", map[string]any{
			"analysisId": analysisID,
			"fileName":   clean,
			"error":      err.Error(),
		})
		return Report{}, fmt.Errorf("%w: %v", ErrNoText, err)
	}
	if countNonSpace(text) < MinTextChars {
		return Report{}, fmt.Errorf("%w: extracted text too short", ErrNoText)
	}

	prompt, truncated := Truncate(text, s.maxPromptChars())

	status := StatusCompleted
	extraction, err := s.extractFields(ctx, prompt)
	if err != nil {
		status = StatusFallback
		metrics.IncExtractionFallback()
		telemetry.Warn("analysis.llm_fallback", map[string]any{
			"analysisId": analysisID,
			"fileName":   clean,
			"error":      err.Error(),
		})
		extraction = llm.Fallback(fallbackSummary(err))
	} else if extraction.FoundData.Empty() {
		telemetry.Warn("analysis.no_sizing_fields", map[string]any{
			"analysisId":  analysisID,
			"fileName":    clean,
			"dataQuality": extraction.DataQuality,
		})
	}

	result := s.catalog().Compute(extraction.FoundData)
	telemetry.Info("analysis.completed", map[string]any{
		"analysisId":  analysisID,
		"fileName":    clean,
		"textLength":  utf8.RuneCountInString(text),
		"truncated":   truncated,
		"methodUsed":  result.Method,
		"dataQuality": extraction.DataQuality,
		"status":      status,
	})

	return Report{
		AnalysisID:       analysisID,
		FileName:         clean,
		PDFAnalysis:      extraction,
		PowerCalculation: result,
		ProcessingStatus: status,
		TextLength:       utf8.RuneCountInString(text),
		Truncated:        truncated,
		Timestamp:        s.now().UTC().Format(time.RFC3339),
	}, nil
}

// Calculate runs only the engine on manually entered fields.
func (s *Service) Calculate(fields sizing.Fields) sizing.Result {
	result := s.catalog().Compute(fields)
	metrics.IncSizingMethod(string(result.Method))
	return result
}

func (s *Service) extractFields(ctx context.Context, text string) (llm.Extraction, error) {
	if s.LLM == nil {
		return llm.Extraction{}, llm.ErrNotConfigured
	}
	return s.LLM.ExtractFields(ctx, text)
}

func (s *Service) catalog() sizing.Catalog {
	if len(s.Catalog) == 0 {
		return sizing.DefaultCatalog
	}
	return s.Catalog
}

func (s *Service) maxPromptChars() int {
	if s.MaxPromptChars <= 0 {
		return DefaultMaxPromptChars
	}
	return s.MaxPromptChars
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Truncate cuts text to max runes and appends TruncationMarker when it was longer.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:max]) + TruncationMarker, true
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func fallbackSummary(err error) string {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return "AI analysis is not configured on this server"
	case errors.Is(err, llm.ErrInvalidOutput):
		return "The AI response could not be interpreted"
	case errors.Is(err, context.DeadlineExceeded):
		return "The AI analysis timed out"
	default:
		return "AI analysis failed"
	}
}
