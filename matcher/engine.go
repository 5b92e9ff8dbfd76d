package matcher

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Engine resolves usernames against an immutable employee catalog.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	catalog  []EmployeeRecord
	cfg      Config
	logger   zerolog.Logger
	refiner  *Refiner
	progress ProgressFunc
}

// ProgressFunc is called after each username completes. Calls may come from
// several goroutines.
type ProgressFunc func(done, total int)

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRefiner enables tie-break refinement of ambiguous candidates.
func WithRefiner(r *Refiner) Option {
	return func(e *Engine) { e.refiner = r }
}

// WithProgress reports MatchAll progress to fn.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// NewEngine copies catalog and cfg so later changes by the caller have no effect.
func NewEngine(catalog []EmployeeRecord, cfg Config, opts ...Option) (*Engine, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		catalog: append([]EmployeeRecord(nil), catalog...),
		cfg:     cfg,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger.Debug().Int("employees", len(e.catalog)).Bool("refiner", e.refiner != nil).Msg("engine ready")
	return e, nil
}

// ScoreAll evaluates username against every employee, in catalog order.
// Template matches take the exact score, demoted to the multiple score when
// more than one employee matched; every other pair gets its composite score.
func (e *Engine) ScoreAll(username string) []MatchCandidate {
	out := make([]MatchCandidate, len(e.catalog))
	exact := 0
	for i, emp := range e.catalog {
		out[i].Employee = emp
		if MatchesPattern(username, emp) {
			out[i].Exact = true
			exact++
			continue
		}
		out[i].Score = Score(username, emp, e.cfg)
	}
	if exact == 0 {
		return out
	}
	score := e.cfg.Exact.Single
	if exact > 1 {
		score = e.cfg.Exact.Multiple
	}
	for i := range out {
		if out[i].Exact {
			out[i].Score = score
		}
	}
	return out
}

// Match ranks the catalog for a single username.
func (e *Engine) Match(username string) Result {
	var tb TieBreaker
	if e.refiner != nil {
		tb = e.refiner
	}
	return Rank(username, e.ScoreAll(username), e.cfg, tb)
}

// MatchAll resolves every username in parallel. Results keep input order.
// Cancelling ctx stops scheduling new usernames.
func (e *Engine) MatchAll(ctx context.Context, usernames []string) ([]Result, error) {
	if len(usernames) == 0 {
		return nil, ErrEmptyInput
	}
	runID := uuid.NewString()
	log := e.logger.With().Str("run", runID).Logger()
	start := time.Now()
	log.Info().Int("usernames", len(usernames)).Int("employees", len(e.catalog)).Msg("match run started")

	results := make([]Result, len(usernames))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, u := range usernames {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Match(u)
			if e.progress != nil {
				e.progress(int(done.Add(1)), len(usernames))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ambiguous, refined, missing int
	for _, r := range results {
		if r.Ambiguous {
			ambiguous++
		}
		if r.Refined {
			refined++
		}
		if len(r.Candidates) == 1 && r.Candidates[0].NoMatch() {
			missing++
		}
	}
	log.Info().
		Int("ambiguous", ambiguous).
		Int("refined", refined).
		Int("unmatched", missing).
		Dur("elapsed", time.Since(start)).
		Msg("match run finished")
	return results, nil
}

// Run normalizes table into a catalog and resolves usernames against it.
func Run(ctx context.Context, table Table, usernames []string, cfg Config, opts ...Option) ([]Result, error) {
	catalog, err := NormalizeCatalog(table, cfg.Columns)
	if err != nil {
		return nil, err
	}
	if len(usernames) == 0 {
		return nil, ErrEmptyInput
	}
	e, err := NewEngine(catalog, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return e.MatchAll(ctx, usernames)
}
