// Package strength adapts an opaque password-scoring capability behind a
// small interface so the scoring heuristics can be swapped without
// touching the evaluation pipeline.
package strength

import (
	"fmt"

	"github.com/nbutton23/zxcvbn-go"
)

// EstimationError reports a failure inside the scoring capability.
type EstimationError struct {
	Err error
}

func (e *EstimationError) Error() string {
	return "strength estimation failed: " + e.Err.Error()
}

func (e *EstimationError) Unwrap() error { return e.Err }

// Estimator scores a candidate password on the 0..4 scale. userInputs
// are auxiliary hints (usernames, email, site name) the heuristics may
// penalize; order is preserved and duplicates are kept.
type Estimator interface {
	Estimate(password string, userInputs []string) (int, error)
}

// Zxcvbn scores passwords with the zxcvbn entropy heuristics. It is
// pure and performs no I/O.
type Zxcvbn struct{}

// NewZxcvbn returns the default estimator.
func NewZxcvbn() Zxcvbn { return Zxcvbn{} }

// Estimate returns the zxcvbn score for password. A panic inside the
// library is recovered and surfaced as an *EstimationError so one bad
// input cannot take down the request.
func (Zxcvbn) Estimate(password string, userInputs []string) (score int, err error) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
			err = &EstimationError{Err: fmt.Errorf("scoring panic: %v", r)}
		}
	}()

	if userInputs == nil {
		userInputs = []string{}
	}

	match := zxcvbn.PasswordStrength(password, userInputs)

	if match.Score < 0 || match.Score > 4 {
		return 0, &EstimationError{Err: fmt.Errorf("score %d out of range", match.Score)}
	}

	return match.Score, nil
}
