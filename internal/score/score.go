// Package score evaluates candidate passwords by combining a local
// strength estimate with a breach-corpus lookup into one composite
// result, caching successful evaluations per request identity.
package score

import "context"

// Request is one password evaluation. Context carries auxiliary hints
// for the strength estimator (usernames, site name, ...); order matters
// and duplicates are kept.
type Request struct {
	Password string   `json:"password"`
	Context  []string `json:"context,omitempty"`
}

// Validate rejects requests the pipeline must not evaluate.
func (r *Request) Validate() error {
	if r.Password == "" {
		return &ValidationError{Reason: "'password' must be a string of length > 0"}
	}
	return nil
}

// Result is the composite judgment for one request. Score and Pwned are
// pointers so "not computed" is distinct from zero: a Pwned of 0 means
// "checked, clean", a nil Pwned means the check never resolved. Results
// are never mutated after construction.
type Result struct {
	OK       bool              `json:"ok"`
	Score    *int              `json:"score,omitempty"`
	Pwned    *int              `json:"pwned,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// Cached reports whether the result was served from cache.
	// Diagnostics only; not part of the scoring contract or the JSON body.
	Cached bool `json:"-"`
}

// StrengthEstimator scores a password locally on the 0..4 scale.
type StrengthEstimator interface {
	Estimate(password string, userInputs []string) (int, error)
}

// BreachChecker looks the password up in a breach corpus. A nil count
// with a nil error means the check was aborted, not that the password
// is clean.
type BreachChecker interface {
	Check(ctx context.Context, password string) (*int, error)
}
