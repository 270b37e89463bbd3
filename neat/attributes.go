package neat

import (
	"fmt"
	"math"
)

// Attribute names managed by node and connection genes.
const (
	AttrBias        = "bias"
	AttrResponse    = "response"
	AttrActivation  = "activation"
	AttrAggregation = "aggregation"
	AttrWeight      = "weight"
	AttrEnabled     = "enabled"
)

// Attribute is a single evolvable value of a gene. The set of implementations
// is closed: FloatAttribute, BoolAttribute, ActivationAttribute and
// AggregationAttribute. Attributes are values; Mutate returns the mutated copy.
type Attribute interface {
	// Name identifies the attribute inside its gene.
	Name() string
	// Distance is the genetic distance to another attribute of the same kind.
	Distance(other Attribute) float64
	// Mutate returns the attribute after one mutation step.
	Mutate(rng *RNG) Attribute

	attribute()
}

// FloatAttributeConfig is the shared configuration for one float attribute
// (bias, response or weight).
type FloatAttributeConfig struct {
	Name        string
	Default     *float64 // nil draws from the init distribution
	InitMean    float64
	InitStdev   float64
	InitType    string // "gaussian"/"normal" or "uniform"
	ReplaceRate float64
	MutateRate  float64
	MutatePower float64
	MinValue    float64
	MaxValue    float64
}

// BoolAttributeConfig is the shared configuration for a boolean attribute.
type BoolAttributeConfig struct {
	Name        string
	Default     *bool // nil flips a coin
	MutateRate  float64
	ReplaceRate float64
}

// ChoiceAttributeConfig is the shared configuration of activation and
// aggregation attributes.
type ChoiceAttributeConfig struct {
	Name       string
	Default    string // empty picks uniformly from Options
	Options    []string
	MutateRate float64
}

// --------------------------- Float ---------------------------

// FloatAttribute is a bounded real-valued attribute.
type FloatAttribute struct {
	Value  float64
	Config *FloatAttributeConfig
}

// New returns a freshly initialized attribute.
func (c *FloatAttributeConfig) New(rng *RNG) FloatAttribute {
	if c.Default != nil {
		return FloatAttribute{Value: *c.Default, Config: c}
	}
	return FloatAttribute{Value: c.draw(rng), Config: c}
}

// With returns an attribute holding v clamped into the configured range.
func (c *FloatAttributeConfig) With(v float64) FloatAttribute {
	return FloatAttribute{Value: clamp(v, c.MinValue, c.MaxValue), Config: c}
}

func (c *FloatAttributeConfig) draw(rng *RNG) float64 {
	var v float64
	switch c.InitType {
	case "uniform":
		lo := math.Max(c.MinValue, c.InitMean-2*c.InitStdev)
		hi := math.Min(c.MaxValue, c.InitMean+2*c.InitStdev)
		if hi < lo {
			hi = lo
		}
		v = lo + rng.Float64()*(hi-lo)
	default:
		v = rng.NormFloat64()*c.InitStdev + c.InitMean
	}
	return clamp(v, c.MinValue, c.MaxValue)
}

func (a FloatAttribute) Name() string { return a.Config.Name }

func (a FloatAttribute) Distance(other Attribute) float64 {
	o, ok := other.(FloatAttribute)
	if !ok {
		panic(attributeMismatch(a, other))
	}
	return math.Abs(a.Value - o.Value)
}

// Mutate perturbs the value with probability MutateRate, otherwise replaces it
// with probability ReplaceRate.
func (a FloatAttribute) Mutate(rng *RNG) Attribute {
	r := rng.Float64()
	switch {
	case r < a.Config.MutateRate:
		a.Value = clamp(a.Value+rng.NormFloat64()*a.Config.MutatePower, a.Config.MinValue, a.Config.MaxValue)
	case r < a.Config.MutateRate+a.Config.ReplaceRate:
		a.Value = a.Config.draw(rng)
	}
	return a
}

func (FloatAttribute) attribute() {}

func (a FloatAttribute) String() string {
	return fmt.Sprintf("%s=%.3f", a.Config.Name, a.Value)
}

// --------------------------- Bool ---------------------------

// BoolAttribute is a boolean attribute whose mutation rate grows by
// ReplaceRate on every mutation. Once the rate is positive every mutation
// re-picks the value with a fair coin.
type BoolAttribute struct {
	Value  bool
	Rate   float64 // accumulated mutation rate
	Config *BoolAttributeConfig
}

// New returns a freshly initialized attribute.
func (c *BoolAttributeConfig) New(rng *RNG) BoolAttribute {
	if c.Default != nil {
		return c.With(*c.Default)
	}
	return c.With(rng.Bool())
}

// With returns an attribute holding v at the initial mutation rate.
func (c *BoolAttributeConfig) With(v bool) BoolAttribute {
	return BoolAttribute{Value: v, Rate: c.MutateRate, Config: c}
}

func (a BoolAttribute) Name() string { return a.Config.Name }

func (a BoolAttribute) Distance(other Attribute) float64 {
	o, ok := other.(BoolAttribute)
	if !ok {
		panic(attributeMismatch(a, other))
	}
	if a.Value != o.Value {
		return 1
	}
	return 0
}

func (a BoolAttribute) Mutate(rng *RNG) Attribute {
	a.Rate += a.Config.ReplaceRate
	if a.Rate > 0 {
		a.Value = rng.Bool()
	}
	return a
}

func (BoolAttribute) attribute() {}

func (a BoolAttribute) String() string {
	return fmt.Sprintf("%s=%t", a.Config.Name, a.Value)
}

// --------------------------- Activation / Aggregation ---------------------------

// ActivationAttribute selects a node's activation function by name.
type ActivationAttribute struct {
	Value  string
	Config *ChoiceAttributeConfig
}

// AggregationAttribute selects a node's aggregation function by name.
type AggregationAttribute struct {
	Value  string
	Config *ChoiceAttributeConfig
}

// NewActivation returns a freshly initialized activation attribute.
func (c *ChoiceAttributeConfig) NewActivation(rng *RNG) ActivationAttribute {
	return ActivationAttribute{Value: c.pick(rng), Config: c}
}

// NewAggregation returns a freshly initialized aggregation attribute.
func (c *ChoiceAttributeConfig) NewAggregation(rng *RNG) AggregationAttribute {
	return AggregationAttribute{Value: c.pick(rng), Config: c}
}

func (c *ChoiceAttributeConfig) pick(rng *RNG) string {
	if c.Default != "" {
		return c.Default
	}
	return c.Options[rng.Intn(len(c.Options))]
}

func (c *ChoiceAttributeConfig) mutate(v string, rng *RNG) string {
	if c.MutateRate > 0 && rng.Float64() < c.MutateRate {
		return c.Options[rng.Intn(len(c.Options))]
	}
	return v
}

func (a ActivationAttribute) Name() string { return AttrActivation }

func (a ActivationAttribute) Distance(other Attribute) float64 {
	o, ok := other.(ActivationAttribute)
	if !ok {
		panic(attributeMismatch(a, other))
	}
	if a.Value != o.Value {
		return 1
	}
	return 0
}

func (a ActivationAttribute) Mutate(rng *RNG) Attribute {
	a.Value = a.Config.mutate(a.Value, rng)
	return a
}

func (ActivationAttribute) attribute() {}

// Func resolves the activation function. It panics on an unknown name, which
// Config.Validate rules out.
func (a ActivationAttribute) Func() ActivationFunc {
	fn, err := GetActivation(a.Value)
	if err != nil {
		panic(err)
	}
	return fn
}

func (a AggregationAttribute) Name() string { return AttrAggregation }

func (a AggregationAttribute) Distance(other Attribute) float64 {
	o, ok := other.(AggregationAttribute)
	if !ok {
		panic(attributeMismatch(a, other))
	}
	if a.Value != o.Value {
		return 1
	}
	return 0
}

func (a AggregationAttribute) Mutate(rng *RNG) Attribute {
	a.Value = a.Config.mutate(a.Value, rng)
	return a
}

func (AggregationAttribute) attribute() {}

// Func resolves the aggregation function.
func (a AggregationAttribute) Func() AggregationFunc {
	fn, err := GetAggregation(a.Value)
	if err != nil {
		panic(err)
	}
	return fn
}

func attributeMismatch(a, b Attribute) string {
	return fmt.Sprintf("neat: attribute kind mismatch: %s (%T) vs %s (%T)", a.Name(), a, b.Name(), b)
}
