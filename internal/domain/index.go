package domain

import (
	"fmt"
	"math"
	"sort"
)

// Weights maps indicator codes to non-negative weights.
type Weights map[string]float64

// UniformWeights assigns the same weight to every indicator. Unweighted
// mode is UniformWeights(indicators, 1.0).
func UniformWeights(indicators []Indicator, w float64) Weights {
	weights := make(Weights, len(indicators))
	for _, ind := range indicators {
		weights[ind.Code] = w
	}
	return weights
}

// ContributionPolicy selects how per-domain contributions are aggregated
// for reporting.
type ContributionPolicy int

const (
	// ContributionAbsoluteShare sums absolute weighted z magnitudes per
	// domain and reports each domain's share of the total. Suited to
	// pie-chart style breakdowns. This is the default.
	ContributionAbsoluteShare ContributionPolicy = iota
	// ContributionSignedSum sums signed weighted z-scores per domain;
	// shares are then computed over absolute domain totals.
	ContributionSignedSum
)

// ParseContributionPolicy converts a config string to a ContributionPolicy.
func ParseContributionPolicy(s string) (ContributionPolicy, error) {
	switch s {
	case "absolute_share":
		return ContributionAbsoluteShare, nil
	case "signed_sum":
		return ContributionSignedSum, nil
	default:
		return 0, fmt.Errorf("unknown contribution policy %q", s)
	}
}

// CommuneScore is one commune's aggregate result. DomainParts holds the
// signed weighted z contribution of each domain to the score; the parts sum
// to the unrounded score.
type CommuneScore struct {
	Commune     Commune            `json:"commune"`
	Score       float64            `json:"score"`
	Percentile  float64            `json:"percentile"`
	DomainParts map[Domain]float64 `json:"domain_parts"`
}

// DomainContribution is one domain's aggregate weighted contribution across
// all scored communes, for the reporting breakdown.
type DomainContribution struct {
	Domain Domain  `json:"domain"`
	Value  float64 `json:"value"`
	Share  float64 `json:"share"`
}

// VulnerabilityScore is the complete result of one index computation.
// Scores follow the commune order of the input table.
type VulnerabilityScore struct {
	Scores        []CommuneScore       `json:"scores"`
	Contributions []DomainContribution `json:"contributions"`
}

// ComputeVulnerabilityIndex aggregates a z-score table into one score per
// commune plus a per-domain contribution breakdown. Every indicator in the
// table must have a weight >= 0; indicators skipped during z-scoring need
// none. Deterministic for identical inputs.
func ComputeVulnerabilityIndex(z *ZScoreTable, weights Weights, policy ContributionPolicy) (*VulnerabilityScore, error) {
	for _, ind := range z.Indicators {
		w, ok := weights[ind.Code]
		if !ok {
			return nil, &MissingWeightError{Code: ind.Code}
		}
		if w < 0 {
			return nil, fmt.Errorf("indicator %s: weight must be >= 0, got %g", ind.Code, w)
		}
	}

	scores := make([]CommuneScore, len(z.Communes))
	domainTotals := make(map[Domain]float64, len(Domains()))

	for i, c := range z.Communes {
		parts := make(map[Domain]float64, len(Domains()))
		var total float64
		for _, ind := range z.Indicators {
			zv, _ := z.Score(c.PCode, ind.Code)
			weighted := weights[ind.Code] * zv
			total += weighted
			parts[ind.Domain] += weighted

			if policy == ContributionAbsoluteShare {
				domainTotals[ind.Domain] += math.Abs(weighted)
			} else {
				domainTotals[ind.Domain] += weighted
			}
		}
		for d, v := range parts {
			parts[d] = round4(v)
		}
		scores[i] = CommuneScore{
			Commune:     c,
			Score:       round4(total),
			DomainParts: parts,
		}
	}

	assignPercentiles(scores)

	return &VulnerabilityScore{
		Scores:        scores,
		Contributions: buildContributions(domainTotals),
	}, nil
}

// assignPercentiles fills the Percentile field using average ranks for ties
// (pandas rank(pct=True) semantics), scaled to 0-100 and rounded.
func assignPercentiles(scores []CommuneScore) {
	n := len(scores)
	if n == 0 {
		return
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]].Score < scores[order[b]].Score
	})

	// Walk runs of equal scores and assign each member the average rank.
	for start := 0; start < n; {
		end := start + 1
		for end < n && scores[order[end]].Score == scores[order[start]].Score {
			end++
		}
		// Ranks are 1-based; the average of ranks start+1..end.
		avgRank := float64(start+1+end) / 2.0
		pct := math.Round(avgRank / float64(n) * 100)
		for i := start; i < end; i++ {
			scores[order[i]].Percentile = pct
		}
		start = end
	}
}

// buildContributions converts domain totals into the presentation-ordered
// breakdown with shares over total absolute magnitude.
func buildContributions(totals map[Domain]float64) []DomainContribution {
	var absTotal float64
	for _, v := range totals {
		absTotal += math.Abs(v)
	}

	out := make([]DomainContribution, 0, len(Domains()))
	for _, d := range Domains() {
		v := totals[d]
		var share float64
		if absTotal > 0 {
			share = math.Abs(v) / absTotal
		}
		out = append(out, DomainContribution{
			Domain: d,
			Value:  round4(v),
			Share:  round4(share),
		})
	}
	return out
}

// round4 rounds to 4 decimal places, matching the reference analysis output.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
