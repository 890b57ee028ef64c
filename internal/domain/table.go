package domain

// StudyRegions are the four ADM1 regions covered by the analysis.
var StudyRegions = []string{"Androy", "Anosy", "Atsimo Andrefana", "Atsimo Atsinanana"}

// KnownRegion reports whether name is one of the four study regions.
func KnownRegion(name string) bool {
	for _, r := range StudyRegions {
		if r == name {
			return true
		}
	}
	return false
}

// Commune identifies one scored geographic unit. PCode is the stable OCHA
// ADM3 identifier; geometry stays in the geodata layer.
type Commune struct {
	PCode      string  `json:"pcode"`
	Name       string  `json:"name"`
	Region     string  `json:"region"`
	Population float64 `json:"population,omitempty"`
}

// IndicatorTable maps (commune, indicator) to a raw numeric value.
// Commune and indicator order is preserved from construction so downstream
// output is deterministic. The table is not required to be rectangular at
// construction time; gaps surface at compute time according to the caller's
// MissingValuePolicy.
type IndicatorTable struct {
	communes   []Commune
	indicators []Indicator
	values     map[string]map[string]float64 // pcode -> code -> raw value
}

// NewIndicatorTable creates an empty table over the given communes and
// indicators.
func NewIndicatorTable(communes []Commune, indicators []Indicator) *IndicatorTable {
	values := make(map[string]map[string]float64, len(communes))
	for _, c := range communes {
		values[c.PCode] = make(map[string]float64, len(indicators))
	}
	return &IndicatorTable{
		communes:   communes,
		indicators: indicators,
		values:     values,
	}
}

// Set records the raw value of one indicator for one commune. Setting a
// value for an unknown commune is a no-op.
func (t *IndicatorTable) Set(pcode, code string, value float64) {
	row, ok := t.values[pcode]
	if !ok {
		return
	}
	row[code] = value
}

// Value returns the raw value for (pcode, code) and whether it is present.
func (t *IndicatorTable) Value(pcode, code string) (float64, bool) {
	row, ok := t.values[pcode]
	if !ok {
		return 0, false
	}
	v, ok := row[code]
	return v, ok
}

// Communes returns the communes in table order.
func (t *IndicatorTable) Communes() []Commune { return t.communes }

// Indicators returns the indicator set in table order.
func (t *IndicatorTable) Indicators() []Indicator { return t.indicators }

// Len returns the number of communes in the table.
func (t *IndicatorTable) Len() int { return len(t.communes) }

// Validate checks the table is rectangular, returning the first gap as a
// MissingValueError. Gap order follows commune then indicator table order.
func (t *IndicatorTable) Validate() error {
	for _, c := range t.communes {
		for _, ind := range t.indicators {
			if _, ok := t.Value(c.PCode, ind.Code); !ok {
				return &MissingValueError{PCode: c.PCode, Code: ind.Code}
			}
		}
	}
	return nil
}
