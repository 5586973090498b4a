package config

import (
	"context"
	"time"

	"document-analyzer/internal/chunker"
	"document-analyzer/internal/domain"
	"document-analyzer/internal/extractor"
	"document-analyzer/internal/normalizer"
	"document-analyzer/internal/ocr"
	"document-analyzer/internal/provider"
	"document-analyzer/internal/repository"
	"document-analyzer/internal/service"
	"document-analyzer/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config             domain.Config
	Logger             domain.Logger
	OCREngine          domain.OCREngine
	Normalizer         domain.Normalizer
	Gateway            domain.Gateway
	AnalysisRepository domain.AnalysisRepository
	AnalysisService    *service.AnalysisService
}

// NewContainer creates a new dependency injection container. Optional
// capabilities (OCR, secondary provider, persistence) are wired only
// when their configuration is present; the pipeline degrades without them.
func NewContainer(ctx context.Context) *Container {
	cfg := LoadConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	// OCR engine, optional. Requires application default credentials.
	var ocrEngine domain.OCREngine
	if cfg.GetGCPProjectID() != "" {
		engine, err := ocr.NewVisionEngine(ctx, appLogger)
		if err != nil {
			appLogger.Warn("ocr engine unavailable, scanned pages will stay empty", "error", err)
		} else {
			ocrEngine = engine
		}
	}

	// Extraction and normalization.
	textExtractor := extractor.NewTextExtractor(appLogger)
	spreadsheetExtractor := extractor.NewSpreadsheetExtractor(appLogger)
	pdfExtractor := extractor.NewPDFExtractor(appLogger, cfg.GetOCRMinCharThreshold())
	imageExtractor := extractor.NewImageExtractor(appLogger, ocrEngine)

	docNormalizer := normalizer.NewDocumentNormalizer(
		textExtractor, spreadsheetExtractor, pdfExtractor, imageExtractor,
		ocrEngine, cfg.GetOCRMinConfidence(), appLogger)

	// Providers and the dispatch gateway.
	providers := make(map[string]provider.Provider)
	if cfg.GetGCPProjectID() != "" {
		gemini, err := provider.NewGeminiProvider(ctx,
			cfg.GetGCPProjectID(), cfg.GetGCPLocation(), cfg.GetGeminiModel(), appLogger)
		if err != nil {
			appLogger.Warn("gemini provider unavailable", "error", err)
		} else {
			providers["gemini"] = gemini
		}
	}
	if cfg.GetOpenAIAPIKey() != "" {
		providers["openai"] = provider.NewOpenAIProvider(
			cfg.GetOpenAIAPIKey(), cfg.GetOpenAIBaseURL(), cfg.GetOpenAIModel(), appLogger)
	}

	gateway := provider.NewProviderGateway(providers, provider.GatewayOptions{
		Primary:        cfg.GetPrimaryProvider(),
		Secondary:      cfg.GetSecondaryProvider(),
		MaxRetries:     cfg.GetMaxRetries(),
		BackoffBase:    time.Duration(cfg.GetRetryBackoffBaseMs()) * time.Millisecond,
		AttemptTimeout: time.Duration(cfg.GetRequestTimeoutMs()) * time.Millisecond,
	}, appLogger)

	// Persistence, optional.
	var analysisRepo domain.AnalysisRepository
	if cfg.GetSupabaseURL() != "" && cfg.GetSupabaseKey() != "" {
		repo, err := repository.NewSupabaseAnalysisRepository(
			cfg.GetSupabaseURL(), cfg.GetSupabaseKey(), appLogger)
		if err != nil {
			appLogger.Warn("analysis persistence unavailable", "error", err)
		} else {
			analysisRepo = repo
		}
	}

	analysisService := service.NewAnalysisService(
		docNormalizer,
		chunker.NewChunker(cfg.GetSizeBudgetTokens(), appLogger),
		gateway,
		analysisRepo,
		cfg.GetDispatchConcurrency(),
		appLogger,
	)

	return &Container{
		Config:             cfg,
		Logger:             appLogger,
		OCREngine:          ocrEngine,
		Normalizer:         docNormalizer,
		Gateway:            gateway,
		AnalysisRepository: analysisRepo,
		AnalysisService:    analysisService,
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetAnalysisService returns the analysis service instance
func (c *Container) GetAnalysisService() *service.AnalysisService {
	return c.AnalysisService
}
