package neat

import (
	"fmt"
)

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the neural network genome.
type NodeGene struct {
	Key         int // >=0; outputs use 0..NumOutputs-1, hidden nodes the ids above
	Bias        FloatAttribute
	Response    FloatAttribute
	Activation  ActivationAttribute
	Aggregation AggregationAttribute
}

// NewNodeGene creates a new NodeGene with attributes initialized according to the config.
func NewNodeGene(key int, config *GenomeConfig, rng *RNG) *NodeGene {
	return &NodeGene{
		Key:         key,
		Bias:        config.BiasConfig().New(rng),
		Response:    config.ResponseConfig().New(rng),
		Activation:  config.ActivationConfig().NewActivation(rng),
		Aggregation: config.AggregationConfig().NewAggregation(rng),
	}
}

// String returns a string representation of the NodeGene.
func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(Key: %d, Bias: %.3f, Response: %.3f, Activation: %s, Aggregation: %s)",
		ng.Key, ng.Bias.Value, ng.Response.Value, ng.Activation.Value, ng.Aggregation.Value)
}

// Attributes returns the managed attributes in a fixed order.
func (ng *NodeGene) Attributes() []Attribute {
	return []Attribute{ng.Bias, ng.Response, ng.Activation, ng.Aggregation}
}

// ManagedAttributes returns the attributes keyed by name, the form
// WithAttributes accepts.
func (ng *NodeGene) ManagedAttributes() map[string]Attribute {
	return attributeMap(ng.Attributes())
}

// WithAttributes returns a gene with the same key whose attributes are taken
// from attrs. It panics when an attribute is missing or has the wrong kind.
func (ng *NodeGene) WithAttributes(attrs map[string]Attribute) *NodeGene {
	return &NodeGene{
		Key:         ng.Key,
		Bias:        requireAttribute[FloatAttribute](attrs, AttrBias),
		Response:    requireAttribute[FloatAttribute](attrs, AttrResponse),
		Activation:  requireAttribute[ActivationAttribute](attrs, AttrActivation),
		Aggregation: requireAttribute[AggregationAttribute](attrs, AttrAggregation),
	}
}

// Copy creates a copy of the NodeGene.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// Mutate mutates every attribute of the gene in place.
func (ng *NodeGene) Mutate(rng *RNG) {
	ng.Bias = ng.Bias.Mutate(rng).(FloatAttribute)
	ng.Response = ng.Response.Mutate(rng).(FloatAttribute)
	ng.Activation = ng.Activation.Mutate(rng).(ActivationAttribute)
	ng.Aggregation = ng.Aggregation.Mutate(rng).(AggregationAttribute)
}

// Distance is |Δbias| + |Δresponse| plus one for each differing function.
func (ng *NodeGene) Distance(other *NodeGene) float64 {
	return attributeDistance(ng.Attributes(), other.Attributes())
}

// Crossover creates a new NodeGene inheriting each attribute from either
// parent with equal probability.
func (ng *NodeGene) Crossover(other *NodeGene, rng *RNG) *NodeGene {
	if ng.Key != other.Key {
		panic(fmt.Sprintf("neat: crossover of node genes %d and %d", ng.Key, other.Key))
	}
	return ng.WithAttributes(crossoverAttributes(ng.Attributes(), other.Attributes(), rng))
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionKey uniquely identifies a connection gene (innovation).
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

func (k ConnectionKey) String() string {
	return fmt.Sprintf("%d->%d", k.InNodeID, k.OutNodeID)
}

// ConnectionGene represents a connection between two nodes in the genome.
type ConnectionGene struct {
	Key     ConnectionKey
	Weight  FloatAttribute
	Enabled BoolAttribute
}

// NewConnectionGene creates a new ConnectionGene with attributes initialized according to the config.
func NewConnectionGene(key ConnectionKey, config *GenomeConfig, rng *RNG) *ConnectionGene {
	return &ConnectionGene{
		Key:     key,
		Weight:  config.WeightConfig().New(rng),
		Enabled: config.EnabledConfig().New(rng),
	}
}

// String returns a string representation of the ConnectionGene.
func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Key: %s, Weight: %.3f, Enabled: %t)", cg.Key, cg.Weight.Value, cg.Enabled.Value)
}

// Attributes returns the managed attributes in a fixed order.
func (cg *ConnectionGene) Attributes() []Attribute {
	return []Attribute{cg.Weight, cg.Enabled}
}

// ManagedAttributes returns the attributes keyed by name.
func (cg *ConnectionGene) ManagedAttributes() map[string]Attribute {
	return attributeMap(cg.Attributes())
}

// WithAttributes returns a gene with the same key whose attributes are taken
// from attrs. It panics when an attribute is missing or has the wrong kind.
func (cg *ConnectionGene) WithAttributes(attrs map[string]Attribute) *ConnectionGene {
	return &ConnectionGene{
		Key:     cg.Key,
		Weight:  requireAttribute[FloatAttribute](attrs, AttrWeight),
		Enabled: requireAttribute[BoolAttribute](attrs, AttrEnabled),
	}
}

// Copy creates a copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// Mutate mutates the weight and enabled flag in place.
func (cg *ConnectionGene) Mutate(rng *RNG) {
	cg.Weight = cg.Weight.Mutate(rng).(FloatAttribute)
	cg.Enabled = cg.Enabled.Mutate(rng).(BoolAttribute)
}

// Distance is |Δweight| plus one when the enabled flags differ.
func (cg *ConnectionGene) Distance(other *ConnectionGene) float64 {
	return attributeDistance(cg.Attributes(), other.Attributes())
}

// Crossover creates a new ConnectionGene inheriting each attribute from
// either parent with equal probability.
func (cg *ConnectionGene) Crossover(other *ConnectionGene, rng *RNG) *ConnectionGene {
	if cg.Key != other.Key {
		panic(fmt.Sprintf("neat: crossover of connection genes %s and %s", cg.Key, other.Key))
	}
	return cg.WithAttributes(crossoverAttributes(cg.Attributes(), other.Attributes(), rng))
}

// --------------------------- Attribute Helpers ---------------------------

func attributeDistance(a, b []Attribute) float64 {
	mustMatchAttributes(a, b)
	d := 0.0
	for i := range a {
		d += a[i].Distance(b[i])
	}
	return d
}

func attributeMap(attrs []Attribute) map[string]Attribute {
	out := make(map[string]Attribute, len(attrs))
	for _, a := range attrs {
		out[a.Name()] = a
	}
	return out
}

func crossoverAttributes(a, b []Attribute, rng *RNG) map[string]Attribute {
	mustMatchAttributes(a, b)
	out := make(map[string]Attribute, len(a))
	for i := range a {
		if rng.Bool() {
			out[a[i].Name()] = a[i]
		} else {
			out[b[i].Name()] = b[i]
		}
	}
	return out
}

func mustMatchAttributes(a, b []Attribute) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("neat: genes manage %d and %d attributes", len(a), len(b)))
	}
	for i := range a {
		if a[i].Name() != b[i].Name() {
			panic(fmt.Sprintf("neat: attribute %q does not match %q", a[i].Name(), b[i].Name()))
		}
	}
}

func requireAttribute[T Attribute](attrs map[string]Attribute, name string) T {
	a, ok := attrs[name]
	if !ok {
		panic(fmt.Sprintf("neat: missing attribute %q", name))
	}
	v, ok := a.(T)
	if !ok {
		panic(fmt.Sprintf("neat: attribute %q has kind %T", name, a))
	}
	return v
}
