package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zTolerance = 1e-9

// singleIndicatorTable builds a table with one non-reversed indicator "X"
// and one commune per raw value.
func singleIndicatorTable(t *testing.T, raws []float64) *IndicatorTable {
	t.Helper()
	return tableWith(t, map[string][]float64{"X": raws}, false)
}

// tableWith builds a table from code -> per-commune raw values. All columns
// must have the same length. reversed applies to every indicator.
func tableWith(t *testing.T, columns map[string][]float64, reversed bool) *IndicatorTable {
	t.Helper()

	var n int
	var indicators []Indicator
	for code, raws := range columns {
		n = len(raws)
		indicators = append(indicators, Indicator{Code: code, Label: code, Domain: DomainMarket, Reversed: reversed})
	}

	communes := make([]Commune, n)
	for i := range communes {
		communes[i] = Commune{PCode: pcode(i), Name: pcode(i), Region: "Androy"}
	}

	table := NewIndicatorTable(communes, indicators)
	for code, raws := range columns {
		for i, v := range raws {
			table.Set(communes[i].PCode, code, v)
		}
	}
	return table
}

func pcode(i int) string {
	return string(rune('A' + i))
}

func TestComputeZScores_WorkedExample(t *testing.T) {
	// Raw values [10, 20, 30] with population stddev give z-scores of
	// approximately [-1.2247, 0, 1.2247].
	table := singleIndicatorTable(t, []float64{10, 20, 30})

	z, err := ComputeZScores(table, ZScoreOptions{})
	require.NoError(t, err)

	expected := []float64{-1.224744871391589, 0, 1.224744871391589}
	for i, want := range expected {
		got, ok := z.Score(pcode(i), "X")
		require.True(t, ok)
		assert.InDelta(t, want, got, zTolerance)
	}
}

func TestComputeZScores_MeanZeroStdOne(t *testing.T) {
	table := singleIndicatorTable(t, []float64{3.5, 8.25, 1.0, 42.0, 17.5, 9.125})

	z, err := ComputeZScores(table, ZScoreOptions{})
	require.NoError(t, err)

	var sum, sq float64
	n := float64(len(z.Communes))
	for _, c := range z.Communes {
		v, ok := z.Score(c.PCode, "X")
		require.True(t, ok)
		sum += v
		sq += v * v
	}
	mean := sum / n
	std := math.Sqrt(sq/n - mean*mean)

	assert.InDelta(t, 0, mean, zTolerance)
	assert.InDelta(t, 1, std, zTolerance)
}

func TestComputeZScores_ReversedNegatesExactly(t *testing.T) {
	raws := []float64{4, 9, 1, 16, 25}
	normal := tableWith(t, map[string][]float64{"X": raws}, false)
	reversed := tableWith(t, map[string][]float64{"X": raws}, true)

	zn, err := ComputeZScores(normal, ZScoreOptions{})
	require.NoError(t, err)
	zr, err := ComputeZScores(reversed, ZScoreOptions{})
	require.NoError(t, err)

	for i := range raws {
		vn, _ := zn.Score(pcode(i), "X")
		vr, _ := zr.Score(pcode(i), "X")
		assert.Equal(t, -vn, vr)
	}
}

func TestComputeZScores_SampleStdDev(t *testing.T) {
	table := singleIndicatorTable(t, []float64{10, 20, 30})

	z, err := ComputeZScores(table, ZScoreOptions{StdDev: StdDevSample})
	require.NoError(t, err)

	// Sample stddev of [10,20,30] is 10, so z = [-1, 0, 1].
	expected := []float64{-1, 0, 1}
	for i, want := range expected {
		got, _ := z.Score(pcode(i), "X")
		assert.InDelta(t, want, got, zTolerance)
	}
}

func TestComputeZScores_ZeroVariance(t *testing.T) {
	raws := []float64{5, 5, 5}

	t.Run("fails by default", func(t *testing.T) {
		_, err := ComputeZScores(singleIndicatorTable(t, raws), ZScoreOptions{})
		var degErr *DegenerateIndicatorError
		require.ErrorAs(t, err, &degErr)
		assert.Equal(t, "X", degErr.Code)
	})

	t.Run("skip policy excludes indicator", func(t *testing.T) {
		z, err := ComputeZScores(singleIndicatorTable(t, raws), ZScoreOptions{Degenerate: DegenerateSkip})
		require.NoError(t, err)
		assert.Empty(t, z.Indicators)
		assert.Equal(t, []string{"X"}, z.Skipped)
		_, ok := z.Score(pcode(0), "X")
		assert.False(t, ok)
	})

	t.Run("zero policy keeps indicator at z=0", func(t *testing.T) {
		z, err := ComputeZScores(singleIndicatorTable(t, raws), ZScoreOptions{Degenerate: DegenerateZero})
		require.NoError(t, err)
		require.Len(t, z.Indicators, 1)
		for i := range raws {
			v, ok := z.Score(pcode(i), "X")
			require.True(t, ok)
			assert.Equal(t, 0.0, v)
		}
	})
}

func TestComputeZScores_TooFewCommunes(t *testing.T) {
	_, err := ComputeZScores(singleIndicatorTable(t, []float64{10}), ZScoreOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 communes")
}

func TestComputeZScores_MissingValue(t *testing.T) {
	// Commune C has no value for X.
	build := func() *IndicatorTable {
		communes := []Commune{
			{PCode: "A", Region: "Androy"},
			{PCode: "B", Region: "Anosy"},
			{PCode: "C", Region: "Androy"},
		}
		table := NewIndicatorTable(communes, []Indicator{{Code: "X", Domain: DomainMarket}})
		table.Set("A", "X", 10)
		table.Set("B", "X", 20)
		return table
	}

	t.Run("fails by default", func(t *testing.T) {
		_, err := ComputeZScores(build(), ZScoreOptions{})
		var missErr *MissingValueError
		require.ErrorAs(t, err, &missErr)
		assert.Equal(t, "C", missErr.PCode)
		assert.Equal(t, "X", missErr.Code)
	})

	t.Run("drop commune policy", func(t *testing.T) {
		z, err := ComputeZScores(build(), ZScoreOptions{MissingValue: MissingDropCommune})
		require.NoError(t, err)
		require.Len(t, z.Communes, 2)
		assert.Equal(t, "A", z.Communes[0].PCode)
		assert.Equal(t, "B", z.Communes[1].PCode)
		_, ok := z.Score("C", "X")
		assert.False(t, ok)
	})

	t.Run("mean fill policy", func(t *testing.T) {
		z, err := ComputeZScores(build(), ZScoreOptions{MissingValue: MissingMeanFill})
		require.NoError(t, err)
		require.Len(t, z.Communes, 3)
		// Gap filled with mean(10, 20) = 15, which is also the column
		// mean after filling, so C's z-score is exactly 0.
		v, ok := z.Score("C", "X")
		require.True(t, ok)
		assert.InDelta(t, 0, v, zTolerance)
	})

	t.Run("drop below minimum fails", func(t *testing.T) {
		communes := []Commune{{PCode: "A"}, {PCode: "B"}}
		table := NewIndicatorTable(communes, []Indicator{{Code: "X", Domain: DomainMarket}})
		table.Set("A", "X", 10)
		_, err := ComputeZScores(table, ZScoreOptions{MissingValue: MissingDropCommune})
		require.Error(t, err)
	})
}

func TestComputeZScores_ScopeIsCurrentCommuneSet(t *testing.T) {
	// The same raw value z-scores differently when the surrounding commune
	// set changes: the mean and stddev come from the scoring scope only.
	small, err := ComputeZScores(singleIndicatorTable(t, []float64{10, 20}), ZScoreOptions{})
	require.NoError(t, err)
	large, err := ComputeZScores(singleIndicatorTable(t, []float64{10, 20, 90}), ZScoreOptions{})
	require.NoError(t, err)

	vSmall, _ := small.Score(pcode(0), "X")
	vLarge, _ := large.Score(pcode(0), "X")
	assert.NotEqual(t, vSmall, vLarge)
}
