package neat

import (
	"fmt"
	"strconv"
	"strings"
)

// ConnectionSelection chooses which inputs receive initial connections.
type ConnectionSelection int

const (
	Unconnected      ConnectionSelection = iota // no initial connections
	SingleSelection                             // one random input
	PartialSelection                            // each input with probability p
	FullSelection                               // every input
)

// ConnectionTarget chooses which nodes initial connections lead to.
type ConnectionTarget int

const (
	TargetAll ConnectionTarget = iota
	TargetHidden
	TargetOutput
)

var (
	selectionNames = map[ConnectionSelection]string{Unconnected: "unconnected", SingleSelection: "single", PartialSelection: "partial", FullSelection: "full"}
	targetNames    = map[ConnectionTarget]string{TargetAll: "all", TargetHidden: "hidden", TargetOutput: "output"}
)

// ConnectivityPolicy describes how a new genome is wired before evolution starts.
type ConnectivityPolicy struct {
	Selection   ConnectionSelection
	Probability float64 // only used by PartialSelection
	Target      ConnectionTarget
}

func (p ConnectivityPolicy) String() string {
	switch p.Selection {
	case Unconnected:
		return "unconnected"
	case PartialSelection:
		return fmt.Sprintf("partial %g %s", p.Probability, targetNames[p.Target])
	default:
		return selectionNames[p.Selection] + " " + targetNames[p.Target]
	}
}

// Resolve returns the policy actually applied to a genome with numHidden
// hidden nodes. A hidden-only policy without hidden nodes falls back to all
// nodes, which is signalled by the second return value.
func (p ConnectivityPolicy) Resolve(numHidden int) (ConnectivityPolicy, bool) {
	if p.Selection != Unconnected && p.Target == TargetHidden && numHidden == 0 {
		p.Target = TargetAll
		return p, true
	}
	return p, false
}

// legacyConnectivity maps the neat-python style initial_connection values.
var legacyConnectivity = map[string]string{
	"fs_neat":          "single output",
	"fs_neat_nohidden": "single output",
	"fs_neat_hidden":   "single hidden",
	"full_direct":      "full all",
	"full_nodirect":    "full hidden",
	"partial_direct":   "partial %s all",
	"partial_nodirect": "partial %s hidden",
}

// ParseConnectivityPolicy parses initial_connection values of the form
// "unconnected", "single [target]", "partial <p> [target]" and "full [target]",
// where target is one of all, hidden or output (default all).
func ParseConnectivityPolicy(s string) (ConnectivityPolicy, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ConnectivityPolicy{}, nil
	}
	if legacy, ok := legacyConnectivity[fields[0]]; ok {
		if strings.Contains(legacy, "%s") {
			if len(fields) < 2 {
				return ConnectivityPolicy{}, fmt.Errorf("initial_connection '%s' needs a probability", s)
			}
			legacy = fmt.Sprintf(legacy, fields[1])
		}
		fields = strings.Fields(legacy)
	}

	var p ConnectivityPolicy
	rest := fields[1:]
	switch fields[0] {
	case "unconnected":
		if len(rest) > 0 {
			return p, fmt.Errorf("initial_connection '%s': unconnected takes no arguments", s)
		}
		return p, nil
	case "single":
		p.Selection = SingleSelection
	case "full":
		p.Selection = FullSelection
	case "partial":
		p.Selection = PartialSelection
		if len(rest) == 0 {
			return p, fmt.Errorf("initial_connection '%s' needs a probability", s)
		}
		prob, err := strconv.ParseFloat(rest[0], 64)
		if err != nil || prob < 0 || prob > 1 {
			return p, fmt.Errorf("initial_connection '%s': probability must be a number between 0 and 1", s)
		}
		p.Probability = prob
		rest = rest[1:]
	default:
		return p, fmt.Errorf("invalid initial_connection type '%s'", s)
	}

	switch len(rest) {
	case 0:
	case 1:
		found := false
		for t, name := range targetNames {
			if rest[0] == name {
				p.Target, found = t, true
			}
		}
		if !found {
			return p, fmt.Errorf("initial_connection '%s': unknown target '%s'", s, rest[0])
		}
	default:
		return p, fmt.Errorf("initial_connection '%s': too many arguments", s)
	}
	return p, nil
}
