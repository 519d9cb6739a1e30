package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dcmotor/internal/config"
)

func shortReference() *config.Config {
	cfg := config.GetPreset("reference")
	cfg.Sim.TMax = 0.5
	cfg.Sim.Dt = 0.01
	return cfg
}

func TestGridSearchFindsAmplitude(t *testing.T) {
	base := shortReference()

	// the response is linear in the amplitude, so 5 V gives exactly half the
	// final current of 10 V
	g := NewGridSearch([]string{"signal.amplitude"}, [][]float64{{2, 5, 10}})
	best10, err := NewGridSearch([]string{"signal.amplitude"}, [][]float64{{10}}).Search(context.Background(), base, Target("final_current", 0))
	require.NoError(t, err)

	want := best10.Metrics["final_current"] / 2
	best, err := g.Search(context.Background(), base, Target("final_current", want))
	require.NoError(t, err)

	assert.Equal(t, 5.0, best.Params["signal.amplitude"])
	assert.InDelta(t, 0, best.Score, 1e-9)
	assert.Equal(t, 3, best.Tried)
}

func TestGridSearchCartesian(t *testing.T) {
	g := NewGridSearch([]string{"motor.r", "motor.b"}, [][]float64{{1, 2}, {0.02, 0.04, 0.08}})

	best, err := g.Search(context.Background(), shortReference(), Target("final_speed", 1e6))
	require.NoError(t, err)

	assert.Equal(t, 6, best.Tried)
	assert.Equal(t, 1.0, best.Params["motor.r"])
	assert.Equal(t, 0.02, best.Params["motor.b"])
}

func TestGridSearchSkipsInvalid(t *testing.T) {
	g := NewGridSearch([]string{"motor.l"}, [][]float64{{0, -1}})

	_, err := g.Search(context.Background(), shortReference(), Target("final_current", 0))
	assert.True(t, errors.Is(err, ErrNoCandidate))
}

func TestGridSearchUnknownParam(t *testing.T) {
	g := NewGridSearch([]string{"motor.q"}, [][]float64{{1}})

	_, err := g.Search(context.Background(), shortReference(), Target("final_current", 0))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCandidate))
}

func TestGridSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"signal.amplitude"}, [][]float64{{1, 2}})
	_, err := g.Search(ctx, shortReference(), Target("final_current", 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRange(t *testing.T) {
	values, err := ParseRange("1:2:0.25")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.25, 1.5, 1.75, 2}, values)

	values, err = ParseRange("0.1:0.3:0.1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, values)

	for _, bad := range []string{"1:2", "a:2:1", "2:1:0.5", "1:2:0"} {
		_, err := ParseRange(bad)
		assert.Error(t, err, bad)
	}
}
