package eta

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateNoneBias(t *testing.T) {
	e := ETA{Min: Hours(4), Max: Hours(40), Real: Hours(16), Completion: 0.1}

	avg, dev, ok := Estimator{Bias: None}.Estimate(e, 0)
	require.True(t, ok)
	assert.InDelta(t, 22.0, avg, 1e-9)
	assert.InDelta(t, 9.0, dev, 1e-9)
}

func TestEstimateBiases(t *testing.T) {
	e := Range(6, 12)
	tests := []struct {
		bias Bias
		want float64
	}{
		{WorstCase, 12},
		{Pessimist, 10},
		{None, 9},
		{Optimist, 8},
		{BestCase, 6},
	}
	for _, tt := range tests {
		t.Run(tt.bias.String(), func(t *testing.T) {
			avg, _, ok := Estimator{Bias: tt.bias}.Estimate(e, 0)
			require.True(t, ok)
			assert.InDelta(t, tt.want, avg, 1e-9)
		})
	}
}

func TestEstimateRiskAware(t *testing.T) {
	e := Range(6, 12)

	est := NewEstimator(BestCase)
	avg, _, _ := est.Estimate(e, 1)
	assert.InDelta(t, 6.0, avg, 1e-9)
	avg, _, _ = est.Estimate(e, 3)
	assert.InDelta(t, 9.0, avg, 1e-9, "two steps worse than best-case is none")

	plain := Estimator{Bias: BestCase}
	avg, _, _ = plain.Estimate(e, 3)
	assert.InDelta(t, 6.0, avg, 1e-9)

	assert.Equal(t, WorstCase, NewEstimator(Pessimist).BiasFor(3))
}

func TestEstimatePartial(t *testing.T) {
	avg, dev, ok := Estimator{Bias: None}.Estimate(ETA{Min: Hours(8)}, 0)
	require.True(t, ok)
	assert.Equal(t, 8.0, avg)
	assert.Equal(t, 0.0, dev)

	avg, dev, ok = Estimator{Bias: None}.Estimate(ETA{Real: Hours(5)}, 0)
	require.True(t, ok)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 0.0, dev)

	_, _, ok = Estimator{Bias: None}.Estimate(ETA{}, 0)
	assert.False(t, ok)
}

func TestParseBias(t *testing.T) {
	for _, s := range []string{"worst-case", "worst_case", "pessimist", "none", "optimist", "best-case", "BEST_CASE"} {
		_, err := ParseBias(s)
		assert.NoError(t, err, s)
	}
	b, err := ParseBias("best_case")
	require.NoError(t, err)
	assert.Equal(t, BestCase, b)

	_, err = ParseBias("gloomy")
	assert.True(t, errors.Is(err, ErrUnknownBias))
}

func TestWorse(t *testing.T) {
	assert.Equal(t, Optimist, BestCase.Worse())
	assert.Equal(t, WorstCase, Pessimist.Worse())
	assert.Equal(t, WorstCase, WorstCase.Worse())
}

func TestETAString(t *testing.T) {
	assert.Equal(t, "", ETA{}.String())
	assert.Equal(t, "4h-40h (16h, 10%)", ETA{Min: Hours(4), Max: Hours(40), Real: Hours(16), Completion: 0.1}.String())
	assert.Equal(t, "8h (?, 0%)", ETA{Min: Hours(8), Max: Hours(8)}.String())
}

func TestAddScale(t *testing.T) {
	sum := Range(1, 2).Add(ETA{Min: Hours(3)})
	require.NotNil(t, sum.Max)
	assert.Equal(t, 4.0, *sum.Min)
	assert.Equal(t, 5.0, *sum.Max)
	assert.Nil(t, sum.Real)

	s := ETA{Min: Hours(2), Real: Hours(3), Completion: 0.5}.Scale(2)
	assert.Equal(t, 4.0, *s.Min)
	assert.Nil(t, s.Max)
	assert.Equal(t, 6.0, *s.Real)
	assert.Equal(t, 0.5, s.Completion)

	assert.True(t, ETA{Real: Hours(1)}.Defined())
	assert.False(t, ETA{Max: Hours(1)}.Defined())
}
