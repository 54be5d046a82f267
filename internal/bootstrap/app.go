package bootstrap

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"heatpump-backend/internal/analysis"
	"heatpump-backend/internal/extract"
	"heatpump-backend/internal/llm"
	openai "heatpump-backend/internal/llm/openai"
	"heatpump-backend/internal/shared/config"
	"heatpump-backend/internal/shared/server"
	"heatpump-backend/internal/shared/telemetry"
	"heatpump-backend/internal/sizing"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	LLM             llm.Client
	Provider        analysis.ProviderStatus
	AnalysisService *analysis.Service
	AnalysisHandler *analysis.Handler
}

// Build wires the pipeline and the router. Outside production a missing LLM
// configuration degrades to the manual-input fallback instead of failing.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	client, provider, err := BuildLLM(cfg)
	if err != nil {
		return nil, err
	}

	svc := &analysis.Service{
		Extractor:      extract.Adapter{},
		LLM:            client,
		Catalog:        sizing.DefaultCatalog,
		MaxPromptChars: cfg.MaxPromptChars,
	}
	handler := analysis.NewHandler(svc, cfg.MaxUploadBytes, provider)

	return &App{
		Config:          cfg,
		Router:          server.NewRouter(cfg, handler),
		LLM:             client,
		Provider:        provider,
		AnalysisService: svc,
		AnalysisHandler: handler,
	}, nil
}

// BuildLLM constructs the extraction client once from cfg.
func BuildLLM(cfg config.Config) (llm.Client, analysis.ProviderStatus, error) {
	provider := strings.TrimSpace(cfg.LLMProvider)
	if provider == "" {
		provider = "groq"
	}
	if provider == "none" {
		telemetry.Warn("llm.disabled", map[string]any{"env": cfg.Env})
		return llm.UnconfiguredClient{}, analysis.ProviderStatus{Provider: provider}, nil
	}

	baseURL, model := openai.Defaults(provider)
	if strings.TrimSpace(cfg.LLMBaseURL) != "" {
		baseURL = cfg.LLMBaseURL
	}
	if strings.TrimSpace(cfg.LLMModel) != "" {
		model = cfg.LLMModel
	}
	status := analysis.ProviderStatus{Provider: provider, Model: model}

	client, err := openai.NewClient(openai.Config{
		APIKey:  cfg.LLMAPIKey,
		Model:   model,
		BaseURL: baseURL,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		if cfg.IsProduction() {
			return nil, status, fmt.Errorf("configure llm provider %s: %w", provider, err)
		}
		telemetry.Warn("llm.unconfigured", map[string]any{
			"provider": provider,
			"env":      cfg.Env,
			"error":    err.Error(),
		})
		return llm.UnconfiguredClient{}, status, nil
	}

	status.Configured = true
	telemetry.Info("llm.configured", map[string]any{
		"provider": provider,
		"model":    client.Model(),
	})
	return client, status, nil
}
