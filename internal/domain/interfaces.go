package domain

import "context"

// Extractor turns one SourceDocument into its ordered unit sequence.
// Extractors never call AI providers; only the image extractor may reach
// an external OCR capability.
type Extractor interface {
	Extract(ctx context.Context, doc *SourceDocument) ([]ExtractedUnit, error)
}

// Normalizer orchestrates extractor selection and OCR fallback for one
// document and produces the normalized unit sequence.
type Normalizer interface {
	Normalize(ctx context.Context, doc *SourceDocument) (*NormalizedDocument, error)
}

// Gateway dispatches one chunk to the configured provider stack. Every
// outcome, including final failure, is encoded in the response.
type Gateway interface {
	Dispatch(ctx context.Context, req ProviderRequest) ProviderResponse
}

// OCREngine is the opaque external OCR capability: image bytes in,
// recognized text plus engine-reported confidence out.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (text string, confidence float64, err error)
}

// AnalysisRepository persists completed analysis results. Persistence is
// best-effort; the pipeline works without a configured repository.
type AnalysisRepository interface {
	Save(ctx context.Context, result *AnalysisResult) error
	GetByDocumentID(ctx context.Context, documentID string) (*AnalysisResult, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config exposes the pipeline and server configuration.
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetMaxFileSize() int64

	GetSizeBudgetTokens() int
	GetMaxRetries() int
	GetRetryBackoffBaseMs() int
	GetDispatchConcurrency() int
	GetRequestTimeoutMs() int
	GetPrimaryProvider() string
	GetSecondaryProvider() string
	GetOCRMinConfidence() float64
	GetOCRMinCharThreshold() int

	GetGCPProjectID() string
	GetGCPLocation() string
	GetGeminiModel() string
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string

	GetSupabaseURL() string
	GetSupabaseKey() string
}
