package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"

	"document-analyzer/internal/domain"
	apperrors "document-analyzer/pkg/errors"
)

const analysisTable = "analysis_results"

// analysisRecord is the row shape of the analysis_results table. Chunk
// results live in a jsonb column; the rest is flattened for querying.
type analysisRecord struct {
	DocumentID    string               `json:"document_id"`
	Directive     string               `json:"directive"`
	Status        string               `json:"status"`
	FailureReason string               `json:"failure_reason,omitempty"`
	Chunks        []domain.ChunkResult `json:"chunks"`
	TokensIn      int                  `json:"tokens_in"`
	TokensOut     int                  `json:"tokens_out"`
	Degraded      bool                 `json:"degraded"`
	CreatedAt     time.Time            `json:"created_at"`
}

// SupabaseAnalysisRepository stores analysis results in Supabase.
type SupabaseAnalysisRepository struct {
	client *supabase.Client
	logger domain.Logger
}

// NewSupabaseAnalysisRepository creates a repository backed by the given
// Supabase project.
func NewSupabaseAnalysisRepository(url, key string, logger domain.Logger) (*SupabaseAnalysisRepository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &SupabaseAnalysisRepository{client: client, logger: logger}, nil
}

// Save upserts the result row for the document. Re-running a document
// replaces its previous result.
func (r *SupabaseAnalysisRepository) Save(ctx context.Context, result *domain.AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := analysisRecord{
		DocumentID:    result.DocumentID,
		Directive:     result.Directive,
		Status:        string(result.Status),
		FailureReason: result.FailureReason,
		Chunks:        result.Chunks,
		TokensIn:      result.Usage.In,
		TokensOut:     result.Usage.Out,
		Degraded:      result.Degraded,
		CreatedAt:     result.CreatedAt,
	}

	_, _, err := r.client.From(analysisTable).
		Insert(record, true, "document_id", "", "").
		Execute()
	if err != nil {
		return apperrors.NewInternalError("failed to save analysis result", err)
	}

	r.logger.Debug("analysis result saved", "document_id", result.DocumentID, "status", result.Status)
	return nil
}

// GetByDocumentID loads the stored result for one document.
func (r *SupabaseAnalysisRepository) GetByDocumentID(ctx context.Context, documentID string) (*domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _, err := r.client.From(analysisTable).
		Select("*", "", false).
		Eq("document_id", documentID).
		Execute()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch analysis result", err)
	}

	var records []analysisRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.NewInternalError("failed to decode analysis result", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no analysis result for document %s", documentID))
	}

	record := records[0]
	return &domain.AnalysisResult{
		DocumentID:    record.DocumentID,
		Directive:     record.Directive,
		Status:        domain.RunStatus(record.Status),
		FailureReason: record.FailureReason,
		Chunks:        record.Chunks,
		Usage:         domain.TokenUsage{In: record.TokensIn, Out: record.TokensOut},
		Degraded:      record.Degraded,
		CreatedAt:     record.CreatedAt,
	}, nil
}
