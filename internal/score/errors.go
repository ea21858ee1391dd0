package score

// ValidationError rejects malformed input before any cache lookup or
// remote call happens. It is the only evaluation failure surfaced as an
// error; estimator and breach-check failures degrade the result instead.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
