// Command validate performs end-to-end data integrity checks on a commune
// reference dataset and a snapshot fixture produced by genfixtures. It
// verifies dataset shape, indicator catalog coverage, normalization sanity,
// and that recomputed scores match the fixture.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset data/communes.geojson \
//	  -fixture data/fixtures/unweighted_snapshot.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
	"github.com/GSinger-Abt/commune-vi-service/internal/geodata"
	"github.com/GSinger-Abt/commune-vi-service/internal/observability"
	"github.com/GSinger-Abt/commune-vi-service/internal/scoring"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataset := flag.String("dataset", "", "commune GeoJSON file path or URL")
	fixture := flag.String("fixture", "", "path to the unweighted snapshot fixture")
	flag.Parse()

	if *dataset == "" || *fixture == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataset, *fixture); code != 0 {
		os.Exit(code)
	}
}

func run(datasetPath, fixturePath string) int {
	fmt.Println("=== Commune Vulnerability Index Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loader := geodata.NewLoader(30*time.Second, logger)

	ds, err := loader.Load(context.Background(), datasetPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	fixture, err := loadFixture(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDatasetShape(ds),
		validateCatalogCoverage(ds),
		validateNormalization(ds),
		validateFixtureConsistency(ds, fixture, logger),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Dataset: %d communes (%d dropped), %d indicators; fixture: %d scores\n",
		len(ds.Communes), ds.Dropped, len(ds.Table.Indicators()), len(fixture.Scores))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadFixture(path string) (*scoring.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap scoring.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ── Phase 1: Dataset Shape ──
// Validates commune identity, region membership, and table completeness.

func validateDatasetShape(ds *geodata.Dataset) *phase {
	p := &phase{name: "Phase 1: Dataset Shape"}

	if len(ds.Communes) < 2 {
		p.errorf("only %d communes; scoring needs at least 2", len(ds.Communes))
	}

	seen := map[string]bool{}
	for _, c := range ds.Communes {
		if seen[c.PCode] {
			p.errorf("duplicate pcode %s", c.PCode)
		}
		seen[c.PCode] = true

		if !domain.KnownRegion(c.Region) {
			p.errorf("commune %s (%s): region %q is not a study region", c.PCode, c.Name, c.Region)
		}
		if c.Population <= 0 {
			p.errorf("commune %s (%s): population %g", c.PCode, c.Name, c.Population)
		}
		if _, ok := ds.Geometries[c.PCode]; !ok {
			p.errorf("commune %s: missing geometry", c.PCode)
		}
	}

	if err := ds.Table.Validate(); err != nil {
		p.errorf("indicator table is not rectangular: %v", err)
	}

	return p
}

// ── Phase 2: Catalog Coverage ──
// Validates the dataset carries exactly the catalog indicators and that no
// indicator is degenerate.

func validateCatalogCoverage(ds *geodata.Dataset) *phase {
	p := &phase{name: "Phase 2: Catalog Coverage"}

	catalog := domain.Catalog()
	indicators := ds.Table.Indicators()
	if len(indicators) != len(catalog) {
		p.errorf("dataset has %d indicators, catalog has %d", len(indicators), len(catalog))
	}

	for _, ind := range indicators {
		ref, ok := domain.IndicatorByCode(ind.Code)
		if !ok {
			p.errorf("indicator %s not in catalog", ind.Code)
			continue
		}
		if ref.Reversed != ind.Reversed {
			p.errorf("indicator %s: reversed flag mismatch", ind.Code)
		}

		// Constant columns cannot be normalized.
		var minV, maxV float64
		first := true
		for _, c := range ds.Communes {
			v, ok := ds.Table.Value(c.PCode, ind.Code)
			if !ok {
				continue
			}
			if first {
				minV, maxV = v, v
				first = false
				continue
			}
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
		if !first && minV == maxV {
			p.errorf("indicator %s: constant value %g across all communes", ind.Code, minV)
		}
	}

	return p
}

// ── Phase 3: Normalization Sanity ──
// Recomputes z-scores and checks each column has mean 0 and stddev 1.

func validateNormalization(ds *geodata.Dataset) *phase {
	p := &phase{name: "Phase 3: Normalization Sanity"}

	z, err := domain.ComputeZScores(ds.Table, domain.ZScoreOptions{})
	if err != nil {
		p.errorf("z-score computation failed: %v", err)
		return p
	}

	n := float64(len(z.Communes))
	for _, ind := range z.Indicators {
		var sum, sq float64
		for _, c := range z.Communes {
			v, ok := z.Score(c.PCode, ind.Code)
			if !ok {
				p.errorf("indicator %s: missing z-score for %s", ind.Code, c.PCode)
				continue
			}
			sum += v
			sq += v * v
		}
		mean := sum / n
		std := math.Sqrt(sq/n - mean*mean)

		if math.Abs(mean) > 1e-9 {
			p.errorf("indicator %s: z-score mean %g, expected 0", ind.Code, mean)
		}
		if math.Abs(std-1) > 1e-9 {
			p.errorf("indicator %s: z-score stddev %g, expected 1", ind.Code, std)
		}
	}

	return p
}

// ── Phase 4: Fixture Consistency ──
// Recomputes the unweighted snapshot and compares it against the fixture.
// Snapshot ID and timestamp are generated fresh each run and are not compared.

func validateFixtureConsistency(ds *geodata.Dataset, fixture *scoring.Snapshot, logger *slog.Logger) *phase {
	p := &phase{name: "Phase 4: Fixture Consistency"}

	svc := scoring.NewService(ds, scoring.Options{}, nil, logger, observability.NewMetricsForTesting())
	snap, err := svc.Compute(context.Background(), scoring.Request{Mode: scoring.ModeUnweighted})
	if err != nil {
		p.errorf("recompute failed: %v", err)
		return p
	}

	if len(snap.Scores) != len(fixture.Scores) {
		p.errorf("score count: recomputed %d, fixture %d", len(snap.Scores), len(fixture.Scores))
		return p
	}

	fixtureByPCode := map[string]domain.CommuneScore{}
	for _, s := range fixture.Scores {
		fixtureByPCode[s.Commune.PCode] = s
	}

	for _, s := range snap.Scores {
		f, ok := fixtureByPCode[s.Commune.PCode]
		if !ok {
			p.errorf("commune %s not in fixture", s.Commune.PCode)
			continue
		}
		if !floatEq(s.Score, f.Score) {
			p.errorf("commune %s: score recomputed %g, fixture %g", s.Commune.PCode, s.Score, f.Score)
		}
		if !floatEq(s.Percentile, f.Percentile) {
			p.errorf("commune %s: percentile recomputed %g, fixture %g", s.Commune.PCode, s.Percentile, f.Percentile)
		}

		// Domain parts must sum back to the score.
		var sum float64
		for _, v := range s.DomainParts {
			sum += v
		}
		if math.Abs(sum-s.Score) > 1e-3 {
			p.errorf("commune %s: domain parts sum %g, score %g", s.Commune.PCode, sum, s.Score)
		}
	}

	var shareSum float64
	for _, c := range snap.Contributions {
		shareSum += c.Share
	}
	if math.Abs(shareSum-1) > 1e-2 {
		p.errorf("contribution shares sum to %g, expected 1", shareSum)
	}

	for i, c := range snap.Contributions {
		if i >= len(fixture.Contributions) {
			p.errorf("fixture missing contribution for %s", c.Domain)
			continue
		}
		f := fixture.Contributions[i]
		if c.Domain != f.Domain {
			p.errorf("contribution %d: recomputed domain %s, fixture %s", i, c.Domain, f.Domain)
			continue
		}
		if !floatEq(c.Value, f.Value) || !floatEq(c.Share, f.Share) {
			p.errorf("domain %s: recomputed value=%g share=%g, fixture value=%g share=%g",
				c.Domain, c.Value, c.Share, f.Value, f.Share)
		}
	}

	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
