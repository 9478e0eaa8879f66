package threshold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/metal-lca/internal/model"
)

func defaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	table, err := Default()
	require.NoError(t, err)
	return NewClassifier(table)
}

func TestClassify_OreGradeInverse(t *testing.T) {
	t.Parallel()
	c := defaultClassifier(t)

	assert.Equal(t, model.SeverityMedium, c.Classify("OreGradePercent", 1.5))
	assert.Equal(t, model.SeverityHigh, c.Classify("OreGradePercent", 1.0))
	assert.Equal(t, model.SeverityVeryHigh, c.Classify("OreGradePercent", 0.4))
	assert.Equal(t, model.SeveritySafe, c.Classify("OreGradePercent", 2.5))
}

func TestClassify_ElectricityNormal(t *testing.T) {
	t.Parallel()
	c := defaultClassifier(t)

	assert.Equal(t, model.SeverityVeryHigh, c.Classify("ElectricityUseKilowattHoursPerTonneOre", 250))
	assert.Equal(t, "Very High", string(c.Classify("ElectricityUseKilowattHoursPerTonneOre", 250)))
	assert.Equal(t, model.SeverityHigh, c.Classify("ElectricityUseKilowattHoursPerTonneOre", 150))
	assert.Equal(t, model.SeverityMedium, c.Classify("ElectricityUseKilowattHoursPerTonneOre", 120))
	assert.Equal(t, model.SeveritySafe, c.Classify("ElectricityUseKilowattHoursPerTonneOre", 20))
}

func TestClassify_UnknownFieldIsSafe(t *testing.T) {
	t.Parallel()
	c := defaultClassifier(t)

	assert.Equal(t, model.SeveritySafe, c.Classify("NotARealField", 1e9))
}

func TestClassify_Monotonic(t *testing.T) {
	t.Parallel()
	c := defaultClassifier(t)

	for field, th := range c.table.Fields() {
		prev := -1
		if th.Polarity == PolarityInverse {
			prev = 4
		}
		upper := (th.VeryHigh + th.Medium) * 3
		step := upper / 600
		for v := 0.0; v <= upper; v += step {
			rank := c.Classify(field, v).Rank()
			if th.Polarity == PolarityInverse {
				assert.LessOrEqual(t, rank, prev, "%s at %v", field, v)
			} else {
				assert.GreaterOrEqual(t, rank, prev, "%s at %v", field, v)
			}
			prev = rank
		}
	}
}

func TestClassifyAll(t *testing.T) {
	t.Parallel()
	c := defaultClassifier(t)

	got := c.ClassifyAll(
		map[string]float64{"SmeltEnergyKilowattHoursPerTonneMetal": 3500},
		map[string]float64{"SOxEmissionsSmeltingKg": 1},
	)
	assert.Equal(t, model.Classification{
		"SmeltEnergyKilowattHoursPerTonneMetal": model.SeverityHigh,
		"SOxEmissionsSmeltingKg":                model.SeveritySafe,
	}, got)
}

func TestNew_RejectsMisorderedCutPoints(t *testing.T) {
	t.Parallel()

	_, err := New(map[string]Threshold{
		"Bad": {Medium: 10, High: 5, VeryHigh: 20},
	})
	assert.Error(t, err)

	_, err = New(map[string]Threshold{
		"BadInverse": {Medium: 1, High: 2, VeryHigh: 3, Polarity: PolarityInverse},
	})
	assert.Error(t, err)

	_, err = New(map[string]Threshold{
		"Weird": {Polarity: "sideways"},
	})
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	data := `
thresholds:
  RecyclingRatePercent: { medium: 70, high: 50, very_high: 30, polarity: inverse }
  DieselUseLitresPerTonneOre: { medium: 1, high: 2, very_high: 3 }
`
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	table, err := Load(path)
	require.NoError(t, err)

	th, ok := table.Get("DieselUseLitresPerTonneOre")
	require.True(t, ok)
	assert.Equal(t, PolarityNormal, th.Polarity)

	c := NewClassifier(table)
	assert.Equal(t, model.SeverityHigh, c.Classify("RecyclingRatePercent", 45))
	assert.Equal(t, model.SeverityVeryHigh, c.Classify("DieselUseLitresPerTonneOre", 3))
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/thresholds.yaml")
	assert.Error(t, err)
}
