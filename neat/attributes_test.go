package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatAttributeWithClamps(t *testing.T) {
	cfg := &FloatAttributeConfig{Name: AttrWeight, MinValue: -1, MaxValue: 1}
	assert.Equal(t, 1.0, cfg.With(5).Value)
	assert.Equal(t, -1.0, cfg.With(-5).Value)
	assert.Equal(t, 0.25, cfg.With(0.25).Value)
}

func TestFloatAttributeMutateStaysInRange(t *testing.T) {
	cfg := &FloatAttributeConfig{
		Name: AttrBias, InitType: "gaussian", InitStdev: 5,
		MutateRate: 0.7, ReplaceRate: 0.3, MutatePower: 10,
		MinValue: -2, MaxValue: 3,
	}
	rng := NewRNG(1)
	a := cfg.New(rng)
	for i := 0; i < 1000; i++ {
		a = a.Mutate(rng).(FloatAttribute)
		require.GreaterOrEqual(t, a.Value, -2.0)
		require.LessOrEqual(t, a.Value, 3.0)
	}
}

func TestFloatAttributeMutateReturnsCopy(t *testing.T) {
	cfg := &FloatAttributeConfig{Name: AttrWeight, MutateRate: 1, MutatePower: 1, MinValue: -10, MaxValue: 10}
	a := cfg.With(0.5)
	m := a.Mutate(NewRNG(3)).(FloatAttribute)
	assert.Equal(t, 0.5, a.Value)
	assert.NotEqual(t, a.Value, m.Value)
}

func TestFloatAttributeZeroRatesNeverChange(t *testing.T) {
	cfg := &FloatAttributeConfig{Name: AttrResponse, MinValue: -10, MaxValue: 10}
	a := cfg.With(1)
	rng := NewRNG(5)
	for i := 0; i < 100; i++ {
		a = a.Mutate(rng).(FloatAttribute)
	}
	assert.Equal(t, 1.0, a.Value)
}

func TestFloatAttributeDefault(t *testing.T) {
	v := 0.75
	cfg := &FloatAttributeConfig{Name: AttrBias, Default: &v, InitStdev: 100, MinValue: -1, MaxValue: 1}
	assert.Equal(t, 0.75, cfg.New(NewRNG(9)).Value)
}

func TestUniformInitWithinTwoStdev(t *testing.T) {
	cfg := &FloatAttributeConfig{Name: AttrWeight, InitType: "uniform", InitMean: 1, InitStdev: 0.5, MinValue: -30, MaxValue: 30}
	rng := NewRNG(11)
	for i := 0; i < 500; i++ {
		v := cfg.New(rng).Value
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 2.0)
	}
}

func TestAttributeDistance(t *testing.T) {
	fc := &FloatAttributeConfig{Name: AttrWeight, MinValue: -10, MaxValue: 10}
	assert.InDelta(t, 1.5, fc.With(-0.5).Distance(fc.With(1)), 1e-12)

	bc := &BoolAttributeConfig{Name: AttrEnabled}
	assert.Equal(t, 0.0, bc.With(true).Distance(bc.With(true)))
	assert.Equal(t, 1.0, bc.With(true).Distance(bc.With(false)))

	cc := &ChoiceAttributeConfig{Name: AttrActivation, Options: []string{"sigmoid", "tanh"}}
	sig := ActivationAttribute{Value: "sigmoid", Config: cc}
	tanh := ActivationAttribute{Value: "tanh", Config: cc}
	assert.Equal(t, 0.0, sig.Distance(sig))
	assert.Equal(t, 1.0, sig.Distance(tanh))
}

func TestAttributeDistanceKindMismatchPanics(t *testing.T) {
	fc := &FloatAttributeConfig{Name: AttrWeight}
	bc := &BoolAttributeConfig{Name: AttrEnabled}
	assert.Panics(t, func() { fc.With(0).Distance(bc.With(true)) })
	assert.Panics(t, func() { bc.With(true).Distance(fc.With(0)) })
}

func TestBoolAttributeRateAccumulates(t *testing.T) {
	cfg := &BoolAttributeConfig{Name: AttrEnabled, MutateRate: 0, ReplaceRate: 0.25}
	a := cfg.With(true)
	rng := NewRNG(2)
	a = a.Mutate(rng).(BoolAttribute)
	assert.InDelta(t, 0.25, a.Rate, 1e-12)
	a = a.Mutate(rng).(BoolAttribute)
	assert.InDelta(t, 0.5, a.Rate, 1e-12)
}

func TestBoolAttributeRepicksOncePositive(t *testing.T) {
	cfg := &BoolAttributeConfig{Name: AttrEnabled, MutateRate: 0.01}
	rng := NewRNG(11)
	a := cfg.With(true)
	changed := 0
	for i := 0; i < 1000; i++ {
		next := a.Mutate(rng).(BoolAttribute)
		if next.Value != a.Value {
			changed++
		}
		a = next
	}
	// A fair coin on every call changes the value about half the time.
	assert.InDelta(t, 500, changed, 100)
}

func TestBoolAttributeZeroRateNeverFlips(t *testing.T) {
	cfg := &BoolAttributeConfig{Name: AttrEnabled}
	a := cfg.With(false)
	rng := NewRNG(4)
	for i := 0; i < 100; i++ {
		a = a.Mutate(rng).(BoolAttribute)
	}
	assert.False(t, a.Value)
}

func TestChoiceAttributeMutateStaysInOptions(t *testing.T) {
	cc := &ChoiceAttributeConfig{Name: AttrActivation, Options: []string{"sigmoid", "tanh", "relu"}, MutateRate: 1}
	a := ActivationAttribute{Value: "sigmoid", Config: cc}
	rng := NewRNG(6)
	for i := 0; i < 100; i++ {
		a = a.Mutate(rng).(ActivationAttribute)
		require.Contains(t, cc.Options, a.Value)
	}
	assert.NotNil(t, a.Func())
}

func TestChoiceAttributeDefault(t *testing.T) {
	cc := &ChoiceAttributeConfig{Name: AttrAggregation, Default: "max", Options: []string{"sum", "max"}}
	a := cc.NewAggregation(NewRNG(8))
	assert.Equal(t, "max", a.Value)
	assert.Equal(t, 3.0, a.Func()([]float64{1, 3, -7}))
}

func TestActivationFunctions(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-12)
	assert.InDelta(t, 1.0, Sigmoid(1000), 1e-9)
	assert.Equal(t, 0.0, ReLU(-3))
	assert.InDelta(t, 1.0, Gaussian(0), 1e-12)
	assert.False(t, math.IsNaN(Gaussian(1e6)))

	_, err := GetActivation("nope")
	assert.Error(t, err)
}

func TestAggregationFunctions(t *testing.T) {
	in := []float64{2, -5, 3}
	assert.Equal(t, 0.0, Sum(in))
	assert.Equal(t, -30.0, AggregateProduct(in))
	assert.Equal(t, -5.0, AggregateMaxAbs(in))
	assert.Equal(t, 2.0, AggregateMedian(in))
	assert.Equal(t, 0.0, AggregateMax(nil))

	_, err := GetAggregation("nope")
	assert.Error(t, err)
}
