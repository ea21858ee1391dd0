package score

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"passgate/internal/cache"
	"passgate/pkg/logging"
)

// Options tune the evaluation policy.
type Options struct {
	// AlwaysReturnScore preserves the estimator's raw score even when
	// the password appears in the breach corpus; by default a pwned
	// password is forced to score 0.
	AlwaysReturnScore bool
}

// Evaluator orchestrates one evaluation: validate, consult the cache,
// otherwise run the strength estimate and the breach check concurrently,
// reconcile the two signals, and cache the outcome. The cache is the
// only state shared across requests; everything else is per-call.
type Evaluator struct {
	cache             cache.Cache
	estimator         StrengthEstimator
	checker           BreachChecker
	alwaysReturnScore bool
}

// NewEvaluator wires the evaluation pipeline. The cache is constructed
// once at process start and handed in so tests can supply an isolated
// instance per case.
func NewEvaluator(c cache.Cache, estimator StrengthEstimator, checker BreachChecker, opts Options) *Evaluator {
	return &Evaluator{
		cache:             c,
		estimator:         estimator,
		checker:           checker,
		alwaysReturnScore: opts.AlwaysReturnScore,
	}
}

type strengthOutcome struct {
	score int
	err   error
}

type breachOutcome struct {
	count *int
	err   error
}

// Evaluate produces the composite result for req.
//
// A cache hit within the TTL window returns the stored result without
// re-running either check. On a miss both checks run concurrently under
// the request context; a failure in either branch degrades the result
// to ok=false instead of failing the call. If ctx is done by the time
// both branches have resolved, the work is discarded and ctx.Err() is
// returned so the caller can stay silent. Only ok=true results are
// cached, reconciled once at write time.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	logger := logging.L(ctx)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key(req.Context, req.Password)

	if raw, hit, err := e.cache.Get(ctx, key); err == nil && hit {
		var res Result
		if err := json.Unmarshal(raw, &res); err != nil {
			// Cache is best-effort; log and fall through to a fresh run.
			logger.Warn("cached result unmarshal failed", zap.Error(err))
		} else {
			// A cancelled caller gets nothing, even on a hit.
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res.Cached = true
			return &res, nil
		}
	} else if err != nil {
		logger.Warn("cache lookup failed", zap.Error(err))
	}

	strengthCh := make(chan strengthOutcome, 1)
	breachCh := make(chan breachOutcome, 1)

	go func() {
		s, err := e.estimator.Estimate(req.Password, req.Context)
		strengthCh <- strengthOutcome{score: s, err: err}
	}()
	go func() {
		n, err := e.checker.Check(ctx, req.Password)
		breachCh <- breachOutcome{count: n, err: err}
	}()

	// Join both branches before reconciling; the breach check unblocks
	// promptly on cancellation, the estimator does not suspend.
	strength := <-strengthCh
	breach := <-breachCh

	if err := ctx.Err(); err != nil {
		// Caller is gone; the computed values are discarded unseen.
		return nil, err
	}

	res := e.reconcile(strength, breach)

	if res.OK {
		raw, err := json.Marshal(res)
		if err != nil {
			logger.Warn("result marshal failed", zap.Error(err))
		} else if err := e.cache.Set(ctx, key, raw); err != nil {
			logger.Warn("cache store failed", zap.Error(err))
		}
	}

	return res, nil
}

// reconcile folds the two branch outcomes into one result. ok requires
// a 0..4 score and a resolved, non-negative breach count; an aborted
// check (nil count) is not a clean one. Failed or degraded evaluations
// carry the first error encountered and are never cached.
func (e *Evaluator) reconcile(strength strengthOutcome, breach breachOutcome) *Result {
	res := &Result{}

	switch {
	case strength.err != nil:
		res.Message = strength.err.Error()
		if breach.err == nil {
			res.Pwned = breach.count
		}
	case strength.score < 0 || strength.score > 4:
		res.Message = "strength score out of range"
		if breach.err == nil {
			res.Pwned = breach.count
		}
	case breach.err != nil:
		res.Message = breach.err.Error()
	case breach.count == nil:
		res.Message = "breach check aborted"
	case *breach.count < 0:
		res.Message = "negative breach count"
	default:
		res.OK = true
		score := strength.score
		if *breach.count > 0 && !e.alwaysReturnScore {
			score = 0
		}
		res.Score = &score
		res.Pwned = breach.count
	}

	return res
}
