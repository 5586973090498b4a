package domain

import "time"

// Chunk is a size-bounded, order-preserving window over one or more
// ExtractedUnits, dispatched as a single provider request. Seq is a
// zero-based sequence number, monotonic across the whole document; the
// reducer reassembles outputs by Seq. IDs are deterministic (document id
// plus sequence) so re-running an unchanged document yields identical
// result structure.
type Chunk struct {
	ID           string `json:"id"`
	Seq          int    `json:"seq"`
	UnitOrdinals []int  `json:"unit_ordinals"`
	Text         string `json:"text"`
	EstTokens    int    `json:"est_tokens"`
}

// Task directives recognized by the provider prompt shaping. Free-form
// directives are passed through verbatim.
const (
	DirectiveSummarize       = "summarize"
	DirectiveExtractEntities = "extract-entities"
	DirectiveClassify        = "classify"
)

// FailureClass is the gateway's taxonomy for provider failures. Retry
// decisions are made from the class, never from error types.
type FailureClass string

const (
	FailureRetryableRateLimit  FailureClass = "retryable-rate-limit"
	FailureRetryableTransient  FailureClass = "retryable-transient"
	FailureFatalAuth           FailureClass = "fatal-auth"
	FailureFatalInvalidRequest FailureClass = "fatal-invalid-request"
	FailureFatalUnavailable    FailureClass = "fatal-unavailable"
)

// Retryable reports whether the class permits another attempt against the
// same provider. Fatal classes go straight to the secondary fallback.
func (c FailureClass) Retryable() bool {
	return c == FailureRetryableRateLimit || c == FailureRetryableTransient
}

// ResponseStatus is the outcome of one gateway dispatch.
type ResponseStatus string

const (
	StatusSuccess          ResponseStatus = "success"
	StatusRetryableFailure ResponseStatus = "retryable-failure"
	StatusFatalFailure     ResponseStatus = "fatal-failure"
)

// ProviderRequest carries one chunk's text and the task directive to a
// provider. Requests are transient: built per dispatch, discarded after
// the response is recorded.
type ProviderRequest struct {
	ChunkID   string
	Seq       int
	Text      string
	Directive string
}

// ProviderResponse encodes every possible dispatch outcome; the gateway
// never lets an error escape its boundary.
type ProviderResponse struct {
	ChunkID   string
	Seq       int
	Provider  string
	Text      string
	TokensIn  int
	TokensOut int
	Status    ResponseStatus
	Class     FailureClass
	Err       string
}

// RunStatus is the document-level outcome of an analysis run.
type RunStatus string

const (
	RunComplete RunStatus = "complete"
	RunPartial  RunStatus = "partial"
	RunFailed   RunStatus = "failed"
)

// ChunkResult is one chunk's final slot in the reduced result: either
// output text or an error reason, never both.
type ChunkResult struct {
	ChunkID      string `json:"chunk_id"`
	Seq          int    `json:"seq"`
	UnitOrdinals []int  `json:"unit_ordinals"`
	OutputText   string `json:"output_text,omitempty"`
	Provider     string `json:"provider,omitempty"`
	ErrorReason  string `json:"error_reason,omitempty"`
}

// TokenUsage aggregates provider-reported token counts across a run.
type TokenUsage struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

// AnalysisResult is the reduction of all chunk responses for one document,
// in original chunk order. Immutable once returned to the caller.
type AnalysisResult struct {
	DocumentID    string        `json:"document_id"`
	Directive     string        `json:"directive"`
	Status        RunStatus     `json:"status"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Chunks        []ChunkResult `json:"chunks"`
	Usage         TokenUsage    `json:"usage"`
	Degraded      bool          `json:"degraded"`
	CreatedAt     time.Time     `json:"created_at"`
}
