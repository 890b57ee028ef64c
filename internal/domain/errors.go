package domain

import "fmt"

// DegenerateIndicatorError reports an indicator whose values have zero
// variance across the scoring scope, leaving its z-score undefined. The
// caller decides the fallback (skip the indicator, zero it, or abort); the
// aggregator never picks one silently.
type DegenerateIndicatorError struct {
	Code string
}

func (e *DegenerateIndicatorError) Error() string {
	return fmt.Sprintf("indicator %s: zero variance across scoring scope", e.Code)
}

// MissingWeightError reports a weighted-mode request that lacks a weight
// for an indicator present in the z-score table. This is a configuration
// error and is not recoverable internally.
type MissingWeightError struct {
	Code string
}

func (e *MissingWeightError) Error() string {
	return fmt.Sprintf("indicator %s: no weight supplied", e.Code)
}

// MissingValueError reports a gap in the indicator table: a commune lacking
// a raw value for an indicator. Imputation is an explicit caller decision
// via MissingValuePolicy, never a hidden default.
type MissingValueError struct {
	PCode string
	Code  string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("commune %s: no value for indicator %s", e.PCode, e.Code)
}
