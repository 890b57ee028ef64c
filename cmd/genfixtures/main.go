// Command genfixtures loads a commune reference GeoJSON and generates an
// unweighted score snapshot fixture for the test suites and the validate
// command. It runs the actual scoring service so the fixture matches real
// service output.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -dataset data/communes.geojson \
//	  -out data/fixtures/unweighted_snapshot.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
	"github.com/GSinger-Abt/commune-vi-service/internal/geodata"
	"github.com/GSinger-Abt/commune-vi-service/internal/observability"
	"github.com/GSinger-Abt/commune-vi-service/internal/scoring"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataset := flag.String("dataset", "", "commune GeoJSON file path or URL")
	out := flag.String("out", "", "output path for the snapshot fixture")
	keepIncomplete := flag.Bool("keep-incomplete", false, "keep communes with missing indicator values")
	flag.Parse()

	if *dataset == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -dataset, -out")
	}

	// Freeze the clock for a reproducible ComputedAt. The snapshot ID is
	// random; consumers compare scores, not identity.
	scoring.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.January, 15, 6, 0, 0, 0, time.UTC),
	))
	defer scoring.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	loader := geodata.NewLoader(30*time.Second, logger)
	ds, err := loader.Load(context.Background(), *dataset, !*keepIncomplete)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	log.Printf("dataset: %d communes, %d dropped", len(ds.Communes), ds.Dropped)

	svc := scoring.NewService(ds, scoring.Options{}, nil, logger, observability.NewMetricsForTesting())

	snap, err := svc.Compute(context.Background(), scoring.Request{Mode: scoring.ModeUnweighted})
	if err != nil {
		return fmt.Errorf("computing snapshot: %w", err)
	}

	if err := writeJSON(*out, snap); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(ds, snap)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(ds *geodata.Dataset, snap *scoring.Snapshot) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Communes: %d\n", len(snap.Scores))
	fmt.Printf("Indicators: %d (skipped: %d)\n",
		len(ds.Table.Indicators()), len(snap.SkippedIndicators))

	printRegionBreakdown(snap)
	printScoreExtremes(snap)
	printContributions(snap)
}

func printRegionBreakdown(snap *scoring.Snapshot) {
	regionCounts := map[string]int{}
	for _, s := range snap.Scores {
		regionCounts[s.Commune.Region]++
	}
	fmt.Printf("By region:")
	for _, r := range domain.StudyRegions {
		fmt.Printf(" %s=%d", r, regionCounts[r])
	}
	fmt.Println()
}

func printScoreExtremes(snap *scoring.Snapshot) {
	ranked := make([]domain.CommuneScore, len(snap.Scores))
	copy(ranked, snap.Scores)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	n := len(ranked)
	top := ranked[:min(5, n)]
	fmt.Println("\nMost vulnerable:")
	for _, s := range top {
		fmt.Printf("  %-12s %-24s score=%g percentile=%g\n", s.Commune.PCode, s.Commune.Name, s.Score, s.Percentile)
	}

	fmt.Println("Least vulnerable:")
	for i := n - 1; i >= max(0, n-5); i-- {
		s := ranked[i]
		fmt.Printf("  %-12s %-24s score=%g percentile=%g\n", s.Commune.PCode, s.Commune.Name, s.Score, s.Percentile)
	}
}

func printContributions(snap *scoring.Snapshot) {
	fmt.Println("\nDomain contributions:")
	for _, c := range snap.Contributions {
		fmt.Printf("  %-16s value=%g share=%g\n", c.Domain, c.Value, c.Share)
	}
}
