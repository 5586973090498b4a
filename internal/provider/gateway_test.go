package provider

import (
	"context"
	"strings"
	"testing"
	"time"

	"document-analyzer/internal/domain"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, fields ...interface{})             {}
func (m *mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (m *mockLogger) Debug(msg string, fields ...interface{})            {}
func (m *mockLogger) Warn(msg string, fields ...interface{})             {}

// stubProvider fails a fixed number of times before succeeding, or
// always fails when failuresBeforeSuccess is negative.
type stubProvider struct {
	name                  string
	failuresBeforeSuccess int
	failClass             domain.FailureClass
	calls                 int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(ctx context.Context, prompt string) (*Generation, error) {
	s.calls++
	if s.failuresBeforeSuccess < 0 || s.calls <= s.failuresBeforeSuccess {
		return nil, &CallError{Class: s.failClass, Message: "stub failure"}
	}
	return &Generation{Text: "analyzed: " + prompt[:10], TokensIn: 5, TokensOut: 3}, nil
}

func newGateway(primary, secondary Provider, maxRetries int) *ProviderGateway {
	providers := map[string]Provider{}
	opts := GatewayOptions{
		MaxRetries:     maxRetries,
		BackoffBase:    time.Millisecond,
		AttemptTimeout: time.Second,
	}
	if primary != nil {
		providers[primary.Name()] = primary
		opts.Primary = primary.Name()
	}
	if secondary != nil {
		providers[secondary.Name()] = secondary
		opts.Secondary = secondary.Name()
	}
	return NewProviderGateway(providers, opts, &mockLogger{})
}

func request() domain.ProviderRequest {
	return domain.ProviderRequest{
		ChunkID:   "doc:0000",
		Seq:       0,
		Text:      "Quarterly revenue grew.",
		Directive: domain.DirectiveSummarize,
	}
}

func TestDispatchSuccessFirstAttempt(t *testing.T) {
	primary := &stubProvider{name: "gemini"}
	resp := newGateway(primary, nil, 3).Dispatch(context.Background(), request())

	if resp.Status != domain.StatusSuccess {
		t.Fatalf("Status = %v, want success (err %s)", resp.Status, resp.Err)
	}
	if resp.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", resp.Provider)
	}
	if primary.calls != 1 {
		t.Errorf("primary called %d times, want 1", primary.calls)
	}
	if resp.TokensIn != 5 || resp.TokensOut != 3 {
		t.Errorf("token usage = %d/%d", resp.TokensIn, resp.TokensOut)
	}
}

func TestDispatchRetriesTransientFailures(t *testing.T) {
	primary := &stubProvider{
		name:                  "gemini",
		failuresBeforeSuccess: 2,
		failClass:             domain.FailureRetryableTransient,
	}
	resp := newGateway(primary, nil, 3).Dispatch(context.Background(), request())

	if resp.Status != domain.StatusSuccess {
		t.Fatalf("Status = %v, want success after retries", resp.Status)
	}
	if primary.calls != 3 {
		t.Errorf("primary called %d times, want 3", primary.calls)
	}
}

func TestDispatchFatalSkipsRetry(t *testing.T) {
	primary := &stubProvider{
		name:                  "gemini",
		failuresBeforeSuccess: -1,
		failClass:             domain.FailureFatalAuth,
	}
	resp := newGateway(primary, nil, 3).Dispatch(context.Background(), request())

	if resp.Status != domain.StatusFatalFailure {
		t.Fatalf("Status = %v, want fatal-failure", resp.Status)
	}
	if primary.calls != 1 {
		t.Errorf("fatal failure retried: %d calls, want 1", primary.calls)
	}
	if resp.Class != domain.FailureFatalAuth {
		t.Errorf("Class = %v, want fatal-auth", resp.Class)
	}
}

func TestDispatchFallsBackToSecondary(t *testing.T) {
	primary := &stubProvider{
		name:                  "gemini",
		failuresBeforeSuccess: -1,
		failClass:             domain.FailureRetryableTransient,
	}
	secondary := &stubProvider{name: "openai"}

	resp := newGateway(primary, secondary, 2).Dispatch(context.Background(), request())

	if resp.Status != domain.StatusSuccess {
		t.Fatalf("Status = %v, want success via secondary", resp.Status)
	}
	if resp.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", resp.Provider)
	}
	// Initial attempt plus two retries.
	if primary.calls != 3 {
		t.Errorf("primary called %d times, want 3", primary.calls)
	}
	if secondary.calls != 1 {
		t.Errorf("secondary called %d times, want exactly 1", secondary.calls)
	}
}

func TestDispatchSecondaryGetsSingleAttempt(t *testing.T) {
	primary := &stubProvider{
		name:                  "gemini",
		failuresBeforeSuccess: -1,
		failClass:             domain.FailureFatalUnavailable,
	}
	secondary := &stubProvider{
		name:                  "openai",
		failuresBeforeSuccess: -1,
		failClass:             domain.FailureRetryableTransient,
	}

	resp := newGateway(primary, secondary, 3).Dispatch(context.Background(), request())

	if resp.Status == domain.StatusSuccess {
		t.Fatal("Status = success, want failure")
	}
	if secondary.calls != 1 {
		t.Errorf("secondary called %d times, want exactly 1", secondary.calls)
	}
	if resp.Provider != "openai" {
		t.Errorf("failure attributed to %q, want openai", resp.Provider)
	}
}

func TestDispatchExhaustedRetriesReportFatalFailure(t *testing.T) {
	primary := &stubProvider{
		name:                  "gemini",
		failuresBeforeSuccess: -1,
		failClass:             domain.FailureRetryableTransient,
	}
	resp := newGateway(primary, nil, 2).Dispatch(context.Background(), request())

	if resp.Status != domain.StatusFatalFailure {
		t.Fatalf("Status = %v, want fatal-failure after exhaustion", resp.Status)
	}
	if resp.Class != domain.FailureRetryableTransient {
		t.Errorf("Class = %v, want retryable-transient", resp.Class)
	}
	if primary.calls != 3 {
		t.Errorf("primary called %d times, want 3", primary.calls)
	}
}

func TestDispatchSecondaryRetryableFailureReportsFatal(t *testing.T) {
	primary := &stubProvider{
		name:                  "gemini",
		failuresBeforeSuccess: -1,
		failClass:             domain.FailureFatalAuth,
	}
	secondary := &stubProvider{
		name:                  "openai",
		failuresBeforeSuccess: -1,
		failClass:             domain.FailureRetryableTransient,
	}

	resp := newGateway(primary, secondary, 3).Dispatch(context.Background(), request())

	if resp.Status != domain.StatusFatalFailure {
		t.Fatalf("Status = %v, want fatal-failure", resp.Status)
	}
	if resp.Provider != "openai" {
		t.Errorf("failure attributed to %q, want openai", resp.Provider)
	}
	if resp.Class != domain.FailureRetryableTransient {
		t.Errorf("Class = %v, want retryable-transient", resp.Class)
	}
}

func TestDispatchUnknownPrimary(t *testing.T) {
	gw := NewProviderGateway(map[string]Provider{}, GatewayOptions{Primary: "gemini"}, &mockLogger{})
	resp := gw.Dispatch(context.Background(), request())

	if resp.Status != domain.StatusFatalFailure || resp.Class != domain.FailureFatalUnavailable {
		t.Errorf("response = %+v, want fatal unavailable", resp)
	}
}

func TestBuildPromptDirectives(t *testing.T) {
	text := "Order 111-222 returned."

	if p := BuildPrompt(domain.DirectiveSummarize, text); !strings.Contains(p, "Summarize") || !strings.Contains(p, text) {
		t.Errorf("summarize prompt = %q", p)
	}
	if p := BuildPrompt(domain.DirectiveExtractEntities, text); !strings.Contains(p, "entity") {
		t.Errorf("extract-entities prompt = %q", p)
	}
	if p := BuildPrompt("translate to French", text); !strings.HasPrefix(p, "translate to French") {
		t.Errorf("free-form prompt = %q", p)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   domain.FailureClass
	}{
		{429, domain.FailureRetryableRateLimit},
		{401, domain.FailureFatalAuth},
		{403, domain.FailureFatalAuth},
		{404, domain.FailureFatalUnavailable},
		{400, domain.FailureFatalInvalidRequest},
		{500, domain.FailureRetryableTransient},
		{503, domain.FailureRetryableTransient},
	}
	for _, tt := range tests {
		if got := classifyHTTPStatus(tt.status); got != tt.want {
			t.Errorf("classifyHTTPStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
