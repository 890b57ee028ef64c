// Package scoring computes vulnerability index snapshots over the loaded
// commune dataset, caches them by request, and hands them to an optional
// publisher.
package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
	"github.com/GSinger-Abt/commune-vi-service/internal/geodata"
	"github.com/GSinger-Abt/commune-vi-service/internal/observability"
)

// Mode selects how indicator weights are supplied.
type Mode string

const (
	// ModeWeighted uses the caller's per-indicator weights.
	ModeWeighted Mode = "weighted"
	// ModeUnweighted assigns every indicator a weight of 1.0.
	ModeUnweighted Mode = "unweighted"
)

// ParseMode converts a request string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeWeighted, ModeUnweighted:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Request describes one index computation.
type Request struct {
	Mode    Mode           `json:"mode"`
	Weights domain.Weights `json:"weights,omitempty"` // ignored in unweighted mode
}

// Snapshot is one complete computed result, suitable for caching, export,
// and publishing.
type Snapshot struct {
	ID                string                      `json:"id"`
	ComputedAt        time.Time                   `json:"computed_at"`
	Mode              Mode                        `json:"mode"`
	DatasetSource     string                      `json:"dataset_source"`
	Weights           domain.Weights              `json:"weights"`
	Scores            []domain.CommuneScore       `json:"scores"`
	Contributions     []domain.DomainContribution `json:"contributions"`
	SkippedIndicators []string                    `json:"skipped_indicators,omitempty"`
}

// Layer is one indicator's raw and normalized values across the commune
// set, for map-layer style exploration.
type Layer struct {
	Indicator domain.Indicator `json:"indicator"`
	Points    []LayerPoint     `json:"points"`
}

// LayerPoint is one commune's value within a Layer.
type LayerPoint struct {
	Commune domain.Commune `json:"commune"`
	Raw     float64        `json:"raw"`
	Z       float64        `json:"z"`
}

// SnapshotPublisher delivers computed snapshots to an external sink.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap *Snapshot) error
}

// Options carries the numeric policies applied to every computation.
type Options struct {
	ZScore       domain.ZScoreOptions
	Contribution domain.ContributionPolicy
	CacheSize    int
}

// Service computes index snapshots over one loaded dataset. Publishing is
// best effort: a publish failure is logged and counted but never fails the
// computation.
type Service struct {
	dataset   *geodata.Dataset
	opts      Options
	cache     *snapshotCache
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service bound to one dataset. publisher may be nil.
func NewService(dataset *geodata.Dataset, opts Options, publisher SnapshotPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}

	metrics.DatasetLoaded.Set(1)
	metrics.DatasetCommunes.Set(float64(len(dataset.Communes)))
	metrics.DatasetDropped.Set(float64(dataset.Dropped))
	if publisher != nil {
		metrics.PublishEnabled.Set(1)
	}

	return &Service{
		dataset:   dataset,
		opts:      opts,
		cache:     newSnapshotCache(opts.CacheSize),
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Catalog returns the indicator set the service scores over.
func (s *Service) Catalog() []domain.Indicator {
	return s.dataset.Table.Indicators()
}

// Communes returns the active commune set in dataset order.
func (s *Service) Communes() []domain.Commune {
	return s.dataset.Communes
}

// CheckReadiness returns nil when the service can score requests.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.dataset == nil || len(s.dataset.Communes) < 2 {
		return errors.New("commune dataset not loaded")
	}
	return nil
}

// Compute runs one index calculation, serving repeats of the same request
// from the cache. Cached snapshots are returned as-is, original ID and
// timestamp included.
func (s *Service) Compute(ctx context.Context, req Request) (*Snapshot, error) {
	weights, err := s.resolveWeights(req)
	if err != nil {
		s.metrics.CalculationErrors.WithLabelValues("weights").Inc()
		return nil, err
	}

	key := requestKey(req.Mode, weights, s.opts)
	if snap, ok := s.cache.get(key); ok {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return snap, nil
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()

	z, err := domain.ComputeZScores(s.dataset.Table, s.opts.ZScore)
	if err != nil {
		s.metrics.CalculationErrors.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	result, err := domain.ComputeVulnerabilityIndex(z, weights, s.opts.Contribution)
	if err != nil {
		s.metrics.CalculationErrors.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	snap := &Snapshot{
		ID:                uuid.NewString(),
		ComputedAt:        clock.Now().UTC(),
		Mode:              req.Mode,
		DatasetSource:     s.dataset.Source,
		Weights:           weights,
		Scores:            result.Scores,
		Contributions:     result.Contributions,
		SkippedIndicators: z.Skipped,
	}

	s.metrics.CalculationsTotal.WithLabelValues(string(req.Mode)).Inc()
	s.metrics.CalculationDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("index computed",
		"snapshot_id", snap.ID,
		"mode", req.Mode,
		"communes", len(snap.Scores),
		"skipped_indicators", len(snap.SkippedIndicators),
	)

	s.cache.put(key, snap)
	s.publish(ctx, snap)
	return snap, nil
}

// Layer z-scores a single indicator over the active commune set.
func (s *Service) Layer(code string) (*Layer, error) {
	var indicator domain.Indicator
	found := false
	for _, ind := range s.dataset.Table.Indicators() {
		if ind.Code == code {
			indicator = ind
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown indicator %q", code)
	}

	sub := domain.NewIndicatorTable(s.dataset.Communes, []domain.Indicator{indicator})
	for _, c := range s.dataset.Communes {
		if v, ok := s.dataset.Table.Value(c.PCode, code); ok {
			sub.Set(c.PCode, code, v)
		}
	}

	z, err := domain.ComputeZScores(sub, s.opts.ZScore)
	if err != nil {
		return nil, err
	}

	points := make([]LayerPoint, 0, len(z.Communes))
	for _, c := range z.Communes {
		zv, ok := z.Score(c.PCode, code)
		if !ok {
			continue
		}
		raw, _ := s.dataset.Table.Value(c.PCode, code)
		points = append(points, LayerPoint{Commune: c, Raw: raw, Z: zv})
	}

	return &Layer{Indicator: indicator, Points: points}, nil
}

func (s *Service) resolveWeights(req Request) (domain.Weights, error) {
	switch req.Mode {
	case ModeUnweighted:
		return domain.UniformWeights(s.dataset.Table.Indicators(), 1.0), nil
	case ModeWeighted:
		if len(req.Weights) == 0 {
			return nil, errors.New("weighted mode requires weights")
		}
		return req.Weights, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", req.Mode)
	}
}

func (s *Service) publish(ctx context.Context, snap *Snapshot) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSnapshot(ctx, snap); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("snapshot publish failed", "snapshot_id", snap.ID, "error", err)
		return
	}
	s.metrics.SnapshotsPublished.Inc()
}

// errorReason buckets computation errors for the failure counter.
func errorReason(err error) string {
	var degErr *domain.DegenerateIndicatorError
	var missValErr *domain.MissingValueError
	var missWErr *domain.MissingWeightError
	switch {
	case errors.As(err, &degErr):
		return "degenerate"
	case errors.As(err, &missValErr):
		return "missing_value"
	case errors.As(err, &missWErr):
		return "weights"
	default:
		return "internal"
	}
}

// requestKey hashes the request and active policies into a stable cache key.
func requestKey(mode Mode, weights domain.Weights, opts Options) string {
	codes := make([]string, 0, len(weights))
	for code := range weights {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s;std=%d;deg=%d;miss=%d;contrib=%d;",
		mode, opts.ZScore.StdDev, opts.ZScore.Degenerate, opts.ZScore.MissingValue, opts.Contribution)
	for _, code := range codes {
		fmt.Fprintf(&b, "%s=%.12g;", code, weights[code])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
