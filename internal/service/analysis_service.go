package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"document-analyzer/internal/chunker"
	"document-analyzer/internal/domain"
)

// persistTimeout bounds the best-effort result save so a slow store
// never delays returning the result to the caller.
const persistTimeout = 10 * time.Second

// AnalysisService runs the full pipeline for one document: normalize,
// chunk, dispatch, reduce. One run per document at a time; a second
// Analyze call for the same document while one is in flight is rejected.
type AnalysisService struct {
	normalizer  domain.Normalizer
	chunker     *chunker.Chunker
	gateway     domain.Gateway
	repo        domain.AnalysisRepository
	logger      domain.Logger
	concurrency int

	mu      sync.Mutex
	running map[string]struct{}
}

// NewAnalysisService wires the pipeline stages. repo may be nil, in
// which case results are returned but never persisted.
func NewAnalysisService(
	normalizer domain.Normalizer,
	chunker *chunker.Chunker,
	gateway domain.Gateway,
	repo domain.AnalysisRepository,
	concurrency int,
	logger domain.Logger,
) *AnalysisService {
	return &AnalysisService{
		normalizer:  normalizer,
		chunker:     chunker,
		gateway:     gateway,
		repo:        repo,
		logger:      logger,
		concurrency: concurrency,
		running:     make(map[string]struct{}),
	}
}

// Analyze runs one analysis for doc under the given directive. The
// returned result always carries a terminal status; for failed runs the
// error explains why and the result's FailureReason matches it.
func (s *AnalysisService) Analyze(ctx context.Context, doc *domain.SourceDocument, directive string) (*domain.AnalysisResult, error) {
	if !s.acquireRun(doc.ID) {
		return nil, domain.ErrAnalysisInProgress
	}
	defer s.releaseRun(doc.ID)

	start := time.Now()
	s.logger.Info("analysis started",
		"document_id", doc.ID, "filename", doc.Filename,
		"format", doc.Format, "directive", directive)

	normalized, err := s.normalizer.Normalize(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return s.failed(ctx, doc.ID, directive, "cancelled", false), domain.ErrCancelled
		}
		return s.failed(ctx, doc.ID, directive, failureReason(err), false), err
	}

	// Raw bytes are no longer needed once units exist.
	doc.Release()

	chunks := s.chunker.Chunk(normalized)
	if len(chunks) == 0 {
		err := domain.ErrNoExtractableContent
		return s.failed(ctx, doc.ID, directive, failureReason(err), normalized.Degraded), err
	}

	responses, err := s.dispatchAll(ctx, chunks, directive)
	if err != nil {
		return s.failed(ctx, doc.ID, directive, "cancelled", normalized.Degraded), domain.ErrCancelled
	}

	result := s.reduce(doc.ID, directive, chunks, responses, normalized.Degraded)
	s.persist(ctx, result)

	s.logger.Info("analysis finished",
		"document_id", doc.ID, "status", result.Status,
		"chunks", len(result.Chunks), "duration", time.Since(start))
	return result, nil
}

// GetAnalysis returns a previously persisted result.
func (s *AnalysisService) GetAnalysis(ctx context.Context, documentID string) (*domain.AnalysisResult, error) {
	if s.repo == nil {
		return nil, errors.New("analysis persistence is not configured")
	}
	return s.repo.GetByDocumentID(ctx, documentID)
}

// dispatchAll fans chunks out to the gateway with bounded concurrency.
// Responses land in a slot per sequence number, so no ordering work is
// needed afterwards. The only error returned is context cancellation.
func (s *AnalysisService) dispatchAll(ctx context.Context, chunks []domain.Chunk, directive string) ([]domain.ProviderResponse, error) {
	responses := make([]domain.ProviderResponse, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.concurrency)

	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			responses[chunk.Seq] = s.gateway.Dispatch(gctx, domain.ProviderRequest{
				ChunkID:   chunk.ID,
				Seq:       chunk.Seq,
				Text:      chunk.Text,
				Directive: directive,
			})
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// reduce folds per-chunk responses into the document-level result.
func (s *AnalysisService) reduce(documentID, directive string, chunks []domain.Chunk, responses []domain.ProviderResponse, degraded bool) *domain.AnalysisResult {
	result := &domain.AnalysisResult{
		DocumentID: documentID,
		Directive:  directive,
		Chunks:     make([]domain.ChunkResult, len(chunks)),
		Degraded:   degraded,
		CreatedAt:  time.Now().UTC(),
	}

	succeeded := 0
	for i, chunk := range chunks {
		resp := responses[i]
		cr := domain.ChunkResult{
			ChunkID:      chunk.ID,
			Seq:          chunk.Seq,
			UnitOrdinals: chunk.UnitOrdinals,
		}
		if resp.Status == domain.StatusSuccess {
			cr.OutputText = resp.Text
			cr.Provider = resp.Provider
			succeeded++
		} else {
			cr.ErrorReason = resp.Err
		}
		result.Chunks[i] = cr
		result.Usage.In += resp.TokensIn
		result.Usage.Out += resp.TokensOut
	}

	switch {
	case succeeded == len(chunks):
		result.Status = domain.RunComplete
	case succeeded > 0:
		result.Status = domain.RunPartial
	default:
		result.Status = domain.RunFailed
		result.FailureReason = "all chunks failed"
	}
	return result
}

// failed builds and persists a terminal failed result.
func (s *AnalysisService) failed(ctx context.Context, documentID, directive, reason string, degraded bool) *domain.AnalysisResult {
	result := &domain.AnalysisResult{
		DocumentID:    documentID,
		Directive:     directive,
		Status:        domain.RunFailed,
		FailureReason: reason,
		Degraded:      degraded,
		CreatedAt:     time.Now().UTC(),
	}
	s.persist(ctx, result)
	return result
}

// persist saves the result when a repository is configured. Failures are
// logged, never surfaced: the caller already holds the result.
func (s *AnalysisService) persist(ctx context.Context, result *domain.AnalysisResult) {
	if s.repo == nil {
		return
	}
	// Detach from the request context so a cancelled run still records
	// its terminal state.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.repo.Save(saveCtx, result); err != nil {
		s.logger.Warn("failed to persist analysis result",
			"document_id", result.DocumentID, "error", err)
	}
}

func (s *AnalysisService) acquireRun(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.running[documentID]; exists {
		return false
	}
	s.running[documentID] = struct{}{}
	return true
}

func (s *AnalysisService) releaseRun(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, documentID)
}

// failureReason maps pipeline errors to the stable reason strings stored
// on failed results.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "unsupported format"
	case errors.Is(err, domain.ErrCorruptInput):
		return "corrupt input"
	case errors.Is(err, domain.ErrNoExtractableContent):
		return "no extractable content"
	case errors.Is(err, domain.ErrCancelled):
		return "cancelled"
	default:
		return err.Error()
	}
}
