package domain

import "testing"

func TestNewSourceDocument(t *testing.T) {
	content := []byte("hello")
	doc := NewSourceDocument("memo.txt", FormatText, content)

	if doc.ID == "" {
		t.Error("document id not assigned")
	}
	if doc.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", doc.Size, len(content))
	}

	other := NewSourceDocument("memo.txt", FormatText, content)
	if doc.ID == other.ID {
		t.Error("two documents share an id")
	}
}

func TestSourceDocumentRelease(t *testing.T) {
	doc := NewSourceDocument("memo.txt", FormatText, []byte("hello"))
	doc.Release()
	if doc.Content != nil {
		t.Error("content not dropped")
	}
	doc.Release() // safe to repeat
}

func TestNormalizedDocumentText(t *testing.T) {
	n := &NormalizedDocument{
		Units: []ExtractedUnit{
			{Ordinal: 0, Text: "first"},
			{Ordinal: 1, Text: ""},
			{Ordinal: 2, Text: "third"},
		},
	}
	if got := n.Text(); got != "first\n\n\n\nthird" {
		t.Errorf("Text() = %q", got)
	}
}

func TestFailureClassRetryable(t *testing.T) {
	retryable := []FailureClass{FailureRetryableRateLimit, FailureRetryableTransient}
	for _, c := range retryable {
		if !c.Retryable() {
			t.Errorf("%v should be retryable", c)
		}
	}
	fatal := []FailureClass{FailureFatalAuth, FailureFatalInvalidRequest, FailureFatalUnavailable}
	for _, c := range fatal {
		if c.Retryable() {
			t.Errorf("%v should not be retryable", c)
		}
	}
}
