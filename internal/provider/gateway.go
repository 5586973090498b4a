package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"document-analyzer/internal/domain"
)

// ProviderGateway dispatches chunk requests against a primary provider
// with retry, falling back to a single attempt on the secondary when the
// primary is exhausted. Every outcome is encoded in the response; no
// error ever escapes Dispatch.
type ProviderGateway struct {
	providers      map[string]Provider
	primary        string
	secondary      string
	maxRetries     int
	backoffBase    time.Duration
	attemptTimeout time.Duration
	logger         domain.Logger
}

// GatewayOptions configures a ProviderGateway.
type GatewayOptions struct {
	Primary        string
	Secondary      string
	MaxRetries     int
	BackoffBase    time.Duration
	AttemptTimeout time.Duration
}

// NewProviderGateway creates a gateway over the given providers, keyed
// by provider name. Secondary may be empty.
func NewProviderGateway(providers map[string]Provider, opts GatewayOptions, logger domain.Logger) *ProviderGateway {
	return &ProviderGateway{
		providers:      providers,
		primary:        opts.Primary,
		secondary:      opts.Secondary,
		maxRetries:     opts.MaxRetries,
		backoffBase:    opts.BackoffBase,
		attemptTimeout: opts.AttemptTimeout,
		logger:         logger,
	}
}

// Dispatch runs one chunk request through the provider stack.
func (g *ProviderGateway) Dispatch(ctx context.Context, req domain.ProviderRequest) domain.ProviderResponse {
	prompt := BuildPrompt(req.Directive, req.Text)

	primary, ok := g.providers[g.primary]
	if !ok {
		return g.failure(req, g.primary, domain.FailureFatalUnavailable,
			fmt.Sprintf("primary provider %q not configured", g.primary))
	}

	gen, err := g.callWithRetry(ctx, primary, prompt)
	if err == nil {
		return g.success(req, primary.Name(), gen)
	}

	primaryClass := classify(err)
	g.logger.Warn("primary provider exhausted",
		"chunk_id", req.ChunkID, "provider", primary.Name(),
		"class", primaryClass, "error", err)

	if ctx.Err() != nil {
		return g.failure(req, primary.Name(), domain.FailureRetryableTransient, ctx.Err().Error())
	}

	// One fallback attempt, no retry loop. If the secondary is down too,
	// the chunk fails fast instead of doubling the latency budget.
	if secondary, ok := g.providers[g.secondary]; ok && g.secondary != "" && g.secondary != g.primary {
		gen, ferr := g.callOnce(ctx, secondary, prompt)
		if ferr == nil {
			g.logger.Info("secondary provider served chunk",
				"chunk_id", req.ChunkID, "provider", secondary.Name())
			return g.success(req, secondary.Name(), gen)
		}
		g.logger.Warn("secondary provider failed",
			"chunk_id", req.ChunkID, "provider", secondary.Name(), "error", ferr)
		return g.failure(req, secondary.Name(), classify(ferr), ferr.Error())
	}

	return g.failure(req, primary.Name(), primaryClass, err.Error())
}

// callWithRetry attempts the provider with exponential backoff and
// jitter. Fatal failure classes abort the retry loop immediately.
func (g *ProviderGateway) callWithRetry(ctx context.Context, p Provider, prompt string) (*Generation, error) {
	var gen *Generation

	operation := func() error {
		result, err := g.callOnce(ctx, p, prompt)
		if err != nil {
			if !classify(err).Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		gen = result
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = g.backoffBase
	expo.RandomizationFactor = 0.5
	expo.Multiplier = 2.0
	expo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(g.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent.Err
		}
		return nil, err
	}
	return gen, nil
}

// callOnce runs a single attempt under the per-attempt timeout.
func (g *ProviderGateway) callOnce(ctx context.Context, p Provider, prompt string) (*Generation, error) {
	attemptCtx := ctx
	if g.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, g.attemptTimeout)
		defer cancel()
	}
	return p.Generate(attemptCtx, prompt)
}

func (g *ProviderGateway) success(req domain.ProviderRequest, providerName string, gen *Generation) domain.ProviderResponse {
	return domain.ProviderResponse{
		ChunkID:   req.ChunkID,
		Seq:       req.Seq,
		Provider:  providerName,
		Text:      gen.Text,
		TokensIn:  gen.TokensIn,
		TokensOut: gen.TokensOut,
		Status:    domain.StatusSuccess,
	}
}

// failure builds a terminal response. Retries and the secondary fallback
// have already run by the time a failure reaches the caller, so the
// status is always fatal-failure; the class records what ended the run.
func (g *ProviderGateway) failure(req domain.ProviderRequest, providerName string, class domain.FailureClass, msg string) domain.ProviderResponse {
	return domain.ProviderResponse{
		ChunkID:  req.ChunkID,
		Seq:      req.Seq,
		Provider: providerName,
		Status:   domain.StatusFatalFailure,
		Class:    class,
		Err:      msg,
	}
}
