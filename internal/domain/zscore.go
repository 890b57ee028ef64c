package domain

import (
	"errors"
	"fmt"
	"math"
)

// StdDevMode selects the standard deviation divisor used when z-scoring.
type StdDevMode int

const (
	// StdDevPopulation divides by n, matching scipy.stats.zscore (ddof=0)
	// used by the reference analysis. This is the default.
	StdDevPopulation StdDevMode = iota
	// StdDevSample divides by n-1.
	StdDevSample
)

// ParseStdDevMode converts a config string to a StdDevMode.
func ParseStdDevMode(s string) (StdDevMode, error) {
	switch s {
	case "population":
		return StdDevPopulation, nil
	case "sample":
		return StdDevSample, nil
	default:
		return 0, fmt.Errorf("unknown stddev mode %q", s)
	}
}

// DegeneratePolicy decides what happens when an indicator has zero variance.
type DegeneratePolicy int

const (
	// DegenerateFail aborts the computation with DegenerateIndicatorError.
	DegenerateFail DegeneratePolicy = iota
	// DegenerateSkip excludes the indicator from the result entirely.
	DegenerateSkip
	// DegenerateZero keeps the indicator with all z-scores set to zero.
	DegenerateZero
)

// ParseDegeneratePolicy converts a config string to a DegeneratePolicy.
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch s {
	case "fail":
		return DegenerateFail, nil
	case "skip":
		return DegenerateSkip, nil
	case "zero":
		return DegenerateZero, nil
	default:
		return 0, fmt.Errorf("unknown degenerate policy %q", s)
	}
}

// MissingValuePolicy decides what happens when the indicator table has gaps.
type MissingValuePolicy int

const (
	// MissingFail aborts the computation with MissingValueError.
	MissingFail MissingValuePolicy = iota
	// MissingDropCommune excludes every commune with at least one gap,
	// reproducing the reference analysis' dropna() load behavior.
	MissingDropCommune
	// MissingMeanFill fills each gap with the indicator mean over the
	// communes that do have a value.
	MissingMeanFill
)

// ParseMissingValuePolicy converts a config string to a MissingValuePolicy.
func ParseMissingValuePolicy(s string) (MissingValuePolicy, error) {
	switch s {
	case "fail":
		return MissingFail, nil
	case "drop_commune":
		return MissingDropCommune, nil
	case "mean_fill":
		return MissingMeanFill, nil
	default:
		return 0, fmt.Errorf("unknown missing value policy %q", s)
	}
}

// ZScoreOptions control normalization behavior. The zero value is the
// strict default: population stddev, fail on zero variance, fail on gaps.
type ZScoreOptions struct {
	StdDev       StdDevMode
	Degenerate   DegeneratePolicy
	MissingValue MissingValuePolicy
}

// ZScoreTable holds per-indicator z-scores for a set of communes. Reversed
// indicators have already been negated. Skipped lists indicators excluded
// under DegenerateSkip.
type ZScoreTable struct {
	Communes   []Commune
	Indicators []Indicator
	Skipped    []string
	scores     map[string]map[string]float64 // pcode -> code -> z
}

// Score returns the z-score for (pcode, code) and whether it is present.
func (z *ZScoreTable) Score(pcode, code string) (float64, bool) {
	row, ok := z.scores[pcode]
	if !ok {
		return 0, false
	}
	v, ok := row[code]
	return v, ok
}

// ComputeZScores normalizes every indicator across the communes in the
// table. The mean and standard deviation of each indicator are computed
// over exactly the communes being scored in this call. At least two
// communes are required. Pure function of its inputs.
func ComputeZScores(table *IndicatorTable, opts ZScoreOptions) (*ZScoreTable, error) {
	communes, values, err := resolveMissing(table, opts.MissingValue)
	if err != nil {
		return nil, err
	}
	if len(communes) < 2 {
		return nil, errors.New("z-score requires at least 2 communes")
	}

	result := &ZScoreTable{
		Communes: communes,
		scores:   make(map[string]map[string]float64, len(communes)),
	}
	for _, c := range communes {
		result.scores[c.PCode] = make(map[string]float64, len(table.Indicators()))
	}

	for _, ind := range table.Indicators() {
		mean, stddev := meanStdDev(communes, values, ind.Code, opts.StdDev)

		if stddev == 0 {
			switch opts.Degenerate {
			case DegenerateSkip:
				result.Skipped = append(result.Skipped, ind.Code)
				continue
			case DegenerateZero:
				for _, c := range communes {
					result.scores[c.PCode][ind.Code] = 0
				}
				result.Indicators = append(result.Indicators, ind)
				continue
			default:
				return nil, &DegenerateIndicatorError{Code: ind.Code}
			}
		}

		sign := 1.0
		if ind.Reversed {
			sign = -1.0
		}
		for _, c := range communes {
			z := sign * (values[c.PCode][ind.Code] - mean) / stddev
			result.scores[c.PCode][ind.Code] = z
		}
		result.Indicators = append(result.Indicators, ind)
	}

	return result, nil
}

// resolveMissing applies the missing-value policy, returning the effective
// commune set and a fully populated value map.
func resolveMissing(table *IndicatorTable, policy MissingValuePolicy) ([]Commune, map[string]map[string]float64, error) {
	indicators := table.Indicators()
	communes := table.Communes()
	values := make(map[string]map[string]float64, len(communes))

	switch policy {
	case MissingDropCommune:
		var kept []Commune
		for _, c := range communes {
			complete := true
			row := make(map[string]float64, len(indicators))
			for _, ind := range indicators {
				v, ok := table.Value(c.PCode, ind.Code)
				if !ok {
					complete = false
					break
				}
				row[ind.Code] = v
			}
			if complete {
				kept = append(kept, c)
				values[c.PCode] = row
			}
		}
		return kept, values, nil

	case MissingMeanFill:
		// Indicator means over present values only.
		means := make(map[string]float64, len(indicators))
		for _, ind := range indicators {
			var sum float64
			var n int
			for _, c := range communes {
				if v, ok := table.Value(c.PCode, ind.Code); ok {
					sum += v
					n++
				}
			}
			if n == 0 {
				return nil, nil, &MissingValueError{PCode: communes[0].PCode, Code: ind.Code}
			}
			means[ind.Code] = sum / float64(n)
		}
		for _, c := range communes {
			row := make(map[string]float64, len(indicators))
			for _, ind := range indicators {
				if v, ok := table.Value(c.PCode, ind.Code); ok {
					row[ind.Code] = v
				} else {
					row[ind.Code] = means[ind.Code]
				}
			}
			values[c.PCode] = row
		}
		return communes, values, nil

	default: // MissingFail
		if err := table.Validate(); err != nil {
			return nil, nil, err
		}
		for _, c := range communes {
			row := make(map[string]float64, len(indicators))
			for _, ind := range indicators {
				v, _ := table.Value(c.PCode, ind.Code)
				row[ind.Code] = v
			}
			values[c.PCode] = row
		}
		return communes, values, nil
	}
}

// meanStdDev computes the mean and standard deviation of one indicator over
// the given communes.
func meanStdDev(communes []Commune, values map[string]map[string]float64, code string, mode StdDevMode) (float64, float64) {
	n := float64(len(communes))

	var sum float64
	for _, c := range communes {
		sum += values[c.PCode][code]
	}
	mean := sum / n

	var sq float64
	for _, c := range communes {
		d := values[c.PCode][code] - mean
		sq += d * d
	}

	divisor := n
	if mode == StdDevSample {
		divisor = n - 1
	}
	return mean, math.Sqrt(sq / divisor)
}
