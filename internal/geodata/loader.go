// Package geodata loads the commune reference GeoJSON into domain types.
//
// The dataset is a FeatureCollection of commune polygons carrying OCHA
// administrative attributes and one numeric attribute per catalog
// indicator. Geometry is retained only for identification and export; all
// scoring happens on the extracted indicator table.
package geodata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
)

// Attribute column names for commune identity, shared with the reference
// dataset schema.
const (
	propPCode      = "ADM3_PCODE"
	propName       = "ADM3_EN"
	propRegion     = "ADM1_EN"
	propPopulation = "Pop2023"
)

// Dataset is an immutable snapshot of the loaded reference data.
type Dataset struct {
	Communes   []domain.Commune
	Table      *domain.IndicatorTable
	Geometries map[string]orb.Geometry // pcode -> commune polygon
	Source     string
	LoadedAt   time.Time
	Dropped    int // communes discarded for incomplete indicator values
}

// Loader fetches and decodes commune reference GeoJSON from a local path or
// HTTP(S) URL.
type Loader struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLoader creates a Loader. The timeout applies to HTTP fetches only.
func NewLoader(timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Load reads the GeoJSON at source and extracts communes, geometries, and
// the indicator table for the full catalog. When dropIncomplete is true,
// communes missing any indicator value are discarded (the reference
// analysis' dropna behavior); otherwise gaps are kept in the table and
// surface at compute time per the caller's MissingValuePolicy.
func (l *Loader) Load(ctx context.Context, source string, dropIncomplete bool) (*Dataset, error) {
	data, err := l.fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	catalog := domain.Catalog()
	var communes []domain.Commune
	geometries := make(map[string]orb.Geometry, len(fc.Features))
	rows := make(map[string]map[string]float64, len(fc.Features))
	dropped := 0

	for i, f := range fc.Features {
		commune, ok := extractCommune(f)
		if !ok {
			l.logger.Warn("skipping feature without commune identity", "feature_index", i)
			continue
		}
		if !domain.KnownRegion(commune.Region) {
			l.logger.Warn("commune outside study regions", "pcode", commune.PCode, "region", commune.Region)
		}

		row := make(map[string]float64, len(catalog))
		complete := true
		for _, ind := range catalog {
			v, ok := numericProp(f.Properties, ind.Code)
			if !ok {
				complete = false
				continue
			}
			row[ind.Code] = v
		}

		if !complete && dropIncomplete {
			dropped++
			l.logger.Debug("dropping commune with incomplete indicators", "pcode", commune.PCode)
			continue
		}

		communes = append(communes, commune)
		geometries[commune.PCode] = f.Geometry
		rows[commune.PCode] = row
	}

	if len(communes) < 2 {
		return nil, fmt.Errorf("dataset %s: %d usable communes, need at least 2", source, len(communes))
	}

	table := domain.NewIndicatorTable(communes, catalog)
	for pcode, row := range rows {
		for code, v := range row {
			table.Set(pcode, code, v)
		}
	}

	l.logger.Info("dataset loaded",
		"source", source,
		"communes", len(communes),
		"indicators", len(catalog),
		"dropped", dropped,
	)

	return &Dataset{
		Communes:   communes,
		Table:      table,
		Geometries: geometries,
		Source:     source,
		LoadedAt:   time.Now().UTC(),
		Dropped:    dropped,
	}, nil
}

// fetch reads raw bytes from an HTTP(S) URL or a filesystem path.
func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dataset response: %w", err)
	}
	return data, nil
}

// extractCommune pulls commune identity fields from feature properties.
func extractCommune(f *geojson.Feature) (domain.Commune, bool) {
	pcode, okP := stringProp(f.Properties, propPCode)
	name, okN := stringProp(f.Properties, propName)
	if !okP || !okN {
		return domain.Commune{}, false
	}
	region, _ := stringProp(f.Properties, propRegion)
	pop, _ := numericProp(f.Properties, propPopulation)
	return domain.Commune{
		PCode:      pcode,
		Name:       name,
		Region:     region,
		Population: pop,
	}, true
}

func stringProp(props geojson.Properties, key string) (string, bool) {
	v, ok := props[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// numericProp accepts the numeric encodings a GeoJSON decoder may produce.
func numericProp(props geojson.Properties, key string) (float64, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
