package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"heatpump-backend/internal/extract"
	"heatpump-backend/internal/llm"
	"heatpump-backend/internal/shared/server/respond"
)

type analyzeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AnalysisID       string `json:"analysis_id"`
		FileName         string `json:"file_name"`
		ProcessingStatus string `json:"processing_status"`
		Timestamp        string `json:"timestamp"`
		PDFAnalysis      struct {
			DataQuality string `json:"data_quality"`
		} `json:"pdf_analysis"`
		PowerCalculation struct {
			Method           string   `json:"method_used"`
			TotalPower       *float64 `json:"total_power"`
			RecommendedModel *string  `json:"recommended_model"`
		} `json:"power_calculation"`
	} `json:"data"`
}

func setupRouter(t *testing.T, ext *stubExtractor, model *stubLLM, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &Service{Extractor: ext, LLM: model}
	h := NewHandler(svc, maxUpload, ProviderStatus{Provider: "groq", Model: "llama-3.3-70b-versatile", Configured: true})

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func multipartRequest(t *testing.T, field, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		w, err := mw.CreateFormFile(field, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	} else if err := mw.WriteField("note", "no file here"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-pdf", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzePDFSuccess(t *testing.T) {
	for _, field := range []string{"file", "pdf_file"} {
		field := field
		t.Run(field, func(t *testing.T) {
			ext := &stubExtractor{text: projectText}
			model := &stubLLM{out: goodExtraction()}
			router := setupRouter(t, ext, model, 0)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, multipartRequest(t, field, "projekt.pdf", []byte("%PDF-1.4 data")))

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			var out analyzeResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if out.Status != respond.StatusSuccess || out.Data.ProcessingStatus != StatusCompleted {
				t.Fatalf("unexpected envelope %+v", out)
			}
			if out.Data.PowerCalculation.Method != "area_energy_formula" {
				t.Fatalf("unexpected method %s", out.Data.PowerCalculation.Method)
			}
			if out.Data.PowerCalculation.TotalPower == nil || *out.Data.PowerCalculation.TotalPower != 10.8 {
				t.Fatalf("unexpected total power %v", out.Data.PowerCalculation.TotalPower)
			}
			if out.Data.PowerCalculation.RecommendedModel == nil ||
				*out.Data.PowerCalculation.RecommendedModel != "Panasonic 12kW (Aquarea All in One)" {
				t.Fatalf("unexpected model %v", out.Data.PowerCalculation.RecommendedModel)
			}
			if out.Data.AnalysisID == "" || out.Data.Timestamp == "" || out.Data.FileName != "projekt.pdf" {
				t.Fatalf("missing metadata %+v", out.Data)
			}
		})
	}
}

func TestAnalyzePDFFallback(t *testing.T) {
	ext := &stubExtractor{text: projectText}
	model := &stubLLM{err: errors.New("503 from provider")}
	router := setupRouter(t, ext, model, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "file", "projekt.docx", []byte("PK docx")))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out analyzeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Data.ProcessingStatus != StatusFallback || out.Data.PDFAnalysis.DataQuality != "insufficient" {
		t.Fatalf("expected fallback data, got %+v", out.Data)
	}
	if out.Data.PowerCalculation.Method != "insufficient_data" || out.Data.PowerCalculation.TotalPower != nil {
		t.Fatalf("expected insufficient data, got %+v", out.Data.PowerCalculation)
	}
}

func TestAnalyzePDFRejections(t *testing.T) {
	tests := []struct {
		name      string
		request   func(t *testing.T) *http.Request
		maxUpload int64
		status    int
		code      string
	}{
		{
			name:    "no file part",
			request: func(t *testing.T) *http.Request { return multipartRequest(t, "", "", nil) },
			status:  http.StatusBadRequest,
			code:    "validation_error",
		},
		{
			name:    "wrong field name",
			request: func(t *testing.T) *http.Request { return multipartRequest(t, "document", "a.pdf", []byte("x")) },
			status:  http.StatusBadRequest,
			code:    "validation_error",
		},
		{
			name:    "empty file name",
			request: func(t *testing.T) *http.Request { return multipartRequest(t, "file", "", []byte("%PDF-1.4")) },
			status:  http.StatusBadRequest,
			code:    "validation_error",
		},
		{
			name:    "blank file name",
			request: func(t *testing.T) *http.Request { return multipartRequest(t, "file", "   ", []byte("%PDF-1.4")) },
			status:  http.StatusBadRequest,
			code:    "validation_error",
		},
		{
			name:    "unsupported extension",
			request: func(t *testing.T) *http.Request { return multipartRequest(t, "file", "photo.jpg", []byte("x")) },
			status:  http.StatusBadRequest,
			code:    "unsupported_file_type",
		},
		{
			name: "not multipart",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/analyze-pdf", strings.NewReader(`{"file":"a.pdf"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			status: http.StatusBadRequest,
			code:   "validation_error",
		},
		{
			name:      "over upload limit",
			request:   func(t *testing.T) *http.Request { return multipartRequest(t, "file", "big.pdf", bytes.Repeat([]byte("a"), 2048)) },
			maxUpload: 1024,
			status:    http.StatusRequestEntityTooLarge,
			code:      "file_too_large",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ext := &stubExtractor{text: projectText}
			model := &stubLLM{out: goodExtraction()}
			router := setupRouter(t, ext, model, tt.maxUpload)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, tt.request(t))

			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			var out respond.ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if out.Status != respond.StatusError || out.Code != tt.code {
				t.Fatalf("unexpected error envelope %+v", out)
			}
			if ext.calls != 0 || model.calls != 0 {
				t.Fatalf("expected no collaborator calls, got extractor=%d llm=%d", ext.calls, model.calls)
			}
		})
	}
}

func TestAnalyzePDFUnreadableDocument(t *testing.T) {
	tests := []struct {
		name string
		ext  *stubExtractor
	}{
		{name: "no text", ext: &stubExtractor{err: extract.ErrNoText}},
		{name: "short text", ext: &stubExtractor{text: "page 1"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			model := &stubLLM{out: goodExtraction()}
			router := setupRouter(t, tt.ext, model, 0)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, multipartRequest(t, "file", "scan.pdf", []byte("%PDF-1.4")))

			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
			}
			if model.calls != 0 {
				t.Fatalf("expected no llm call, got %d", model.calls)
			}
		})
	}
}

func TestCalculate(t *testing.T) {
	router := setupRouter(t, &stubExtractor{}, &stubLLM{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(`{"annual_heat_demand":12000}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Data struct {
			PowerCalculation struct {
				Method     string  `json:"method_used"`
				TotalPower float64 `json:"total_power"`
			} `json:"power_calculation"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Data.PowerCalculation.Method != "annual_demand_formula" || out.Data.PowerCalculation.TotalPower != 9.8 {
		t.Fatalf("unexpected calculation %+v", out.Data.PowerCalculation)
	}
}

func TestCalculateInvalidBody(t *testing.T) {
	router := setupRouter(t, &stubExtractor{}, &stubLLM{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(`{"usable_area":"lots"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPDFStatus(t *testing.T) {
	router := setupRouter(t, &stubExtractor{}, &stubLLM{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/pdf-status", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Data["pdf_analyzer_available"] != true || out.Data["llm_configured"] != true {
		t.Fatalf("unexpected status %v", out.Data)
	}
	if out.Data["provider"] != "groq" || out.Data["model"] != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected provider %v", out.Data)
	}
}

func TestPDFStatusUnconfiguredProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &Service{Extractor: &stubExtractor{}, LLM: llm.UnconfiguredClient{}}
	h := NewHandler(svc, 0, ProviderStatus{Provider: "groq", Model: "llama-3.3-70b-versatile"})
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/pdf-status", nil))

	var out struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Data["pdf_analyzer_available"] != false || out.Data["llm_configured"] != false {
		t.Fatalf("expected analyzer reported unavailable, got %v", out.Data)
	}
}
