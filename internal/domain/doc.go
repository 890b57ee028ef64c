// Package domain implements the commune Vulnerability Index computation for
// the four study regions of southern Madagascar (Androy, Anosy, Atsimo
// Andrefana, Atsimo Atsinanana).
//
// # Data Source
//
// Raw indicator values come from a commune reference GeoJSON
// (MadagascarCommunes_VI_Analysis), one polygon feature per commune with
// OCHA administrative attributes (ADM1_PCODE/ADM1_EN through
// ADM3_PCODE/ADM3_EN), population estimates (Pop2023, Pop2024), and one
// numeric attribute column per indicator. See [Catalog] for the full
// indicator list and its grouping into the nine thematic domains.
//
// # Normalization
//
// Each indicator is z-scored across exactly the communes in the current
// scoring scope:
//
//	z(C,I) = (raw(C,I) - mean_I) / stddev_I
//
// The standard deviation divisor defaults to n (population), matching the
// scipy.stats.zscore convention the reference analysis used; a sample
// (n-1) divisor is selectable via [ZScoreOptions]. Reversed indicators,
// those where a higher raw value means lower vulnerability (road density,
// wealth), have their z-scores negated before aggregation.
//
// An indicator with zero variance has no defined z-score. By default this
// fails with [DegenerateIndicatorError]; callers may instead skip the
// indicator or treat its z-scores as zero. The same explicitness applies to
// gaps in the indicator table: nothing is imputed unless the caller picks a
// policy ([MissingValuePolicy]).
//
// # Aggregation
//
// The Vulnerability Index of a commune is the weighted sum of its z-scores,
// rounded to 4 decimals. Percentiles follow the pandas rank(pct=True)
// convention: tied scores receive their average rank, and the result is
// scaled to 0-100 and rounded. Domain contributions for reporting are
// computed under a caller-selected policy ([ContributionPolicy]): share of
// total absolute weighted magnitude (pie-chart friendly) or plain signed
// sums.
//
// Everything in this package is a pure function of its inputs: no I/O, no
// randomness, no shared mutable state.
package domain
