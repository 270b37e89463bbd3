// Package nn turns genomes into runnable neural networks.
package nn

import (
	"errors"
	"fmt"
	"slices"

	"github.com/baldhumanity/neat-pipeline/neat"
)

// ErrRecurrent is returned for genomes whose configuration allows recurrent connections.
var ErrRecurrent = errors.New("nn: genome is not configured as feed-forward")

// neuralNode represents a node during network activation.
// It stores resolved activation/aggregation functions and node properties.
type neuralNode struct {
	Key           int
	Bias          float64
	Response      float64
	ActivationFn  neat.ActivationFunc
	AggregationFn neat.AggregationFunc
	Inputs        []link // Enabled incoming connections
}

type link struct {
	from   int
	weight float64
}

// FeedForwardNetwork represents a phenotype network that can be activated.
type FeedForwardNetwork struct {
	InputKeys     []int // Input node keys (negative)
	OutputKeys    []int // Output node keys (0 to N-1)
	NodeEvalOrder []int // Topologically sorted non-input nodes
	Nodes         map[int]neuralNode
}

// CreateFeedForwardNetwork builds a runnable feed-forward network from a genome.
// Only enabled connections take part; nodes are ordered with Kahn's algorithm.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if !g.Config.FeedForward {
		return nil, ErrRecurrent
	}

	nodes := make(map[int]neuralNode, len(g.Nodes))
	for _, key := range g.NodeKeys() {
		gn := g.Nodes[key]
		nodes[key] = neuralNode{
			Key:           key,
			Bias:          gn.Bias.Value,
			Response:      gn.Response.Value,
			ActivationFn:  gn.Activation.Func(),
			AggregationFn: gn.Aggregation.Func(),
		}
	}

	inDegree := make(map[int]int)
	graph := make(map[int][]int)
	for _, ik := range g.Config.InputKeys {
		inDegree[ik] = 0
	}
	for key := range nodes {
		inDegree[key] = 0
	}
	for _, key := range g.ConnectionKeys() {
		conn := g.Connections[key]
		if !conn.Enabled.Value {
			continue
		}
		node, ok := nodes[key.OutNodeID]
		if !ok {
			return nil, fmt.Errorf("connection %s targets unknown node %d", key, key.OutNodeID)
		}
		if _, ok := inDegree[key.InNodeID]; !ok {
			return nil, fmt.Errorf("connection %s starts at unknown node %d", key, key.InNodeID)
		}
		node.Inputs = append(node.Inputs, link{from: key.InNodeID, weight: conn.Weight.Value})
		nodes[key.OutNodeID] = node
		graph[key.InNodeID] = append(graph[key.InNodeID], key.OutNodeID)
		inDegree[key.OutNodeID]++
	}

	// Kahn's algorithm, smallest key first for a deterministic order.
	var queue []int
	for key, d := range inDegree {
		if d == 0 {
			queue = append(queue, key)
		}
	}
	slices.Sort(queue)

	evalOrder := make([]int, 0, len(nodes))
	visited := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		visited++
		if _, ok := nodes[u]; ok {
			evalOrder = append(evalOrder, u)
		}
		for _, v := range graph[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
		slices.Sort(queue)
	}
	if visited != len(inDegree) {
		return nil, fmt.Errorf("failed topological sort of genome %d: cycle detected (ordered %d of %d nodes)", g.Key, visited, len(inDegree))
	}

	return &FeedForwardNetwork{
		InputKeys:     slices.Clone(g.Config.InputKeys),
		OutputKeys:    slices.Clone(g.Config.OutputKeys),
		NodeEvalOrder: evalOrder,
		Nodes:         nodes,
	}, nil
}

// Activate computes the network's output for a given slice of input values.
// Each node outputs activation(bias + response * aggregation(weighted inputs)).
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.InputKeys) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), len(net.InputKeys))
	}

	values := make(map[int]float64, len(net.InputKeys)+len(net.Nodes))
	for i, ik := range net.InputKeys {
		values[ik] = inputs[i]
	}

	var buf []float64
	for _, key := range net.NodeEvalOrder {
		node := net.Nodes[key]
		buf = buf[:0]
		for _, in := range node.Inputs {
			buf = append(buf, values[in.from]*in.weight)
		}
		values[key] = node.ActivationFn(node.Bias + node.Response*node.AggregationFn(buf))
	}

	outputs := make([]float64, len(net.OutputKeys))
	for i, ok := range net.OutputKeys {
		outputs[i] = values[ok]
	}
	return outputs, nil
}
