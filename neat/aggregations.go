package neat

import (
	"fmt"
	"math"
)

// AggregationFunc combines the weighted inputs of a node into one value.
type AggregationFunc func(inputs []float64) float64

// AggregationFunctions maps the names usable in aggregation_options to functions.
var AggregationFunctions = map[string]AggregationFunc{
	"sum":     Sum,
	"product": AggregateProduct,
	"min":     AggregateMin,
	"max":     AggregateMax,
	"mean":    Mean,
	"average": Mean,
	"median":  AggregateMedian,
	"maxabs":  AggregateMaxAbs,
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationFunc, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// AggregateProduct multiplies the inputs; an empty input yields 1.
func AggregateProduct(inputs []float64) float64 {
	product := 1.0
	for _, v := range inputs {
		product *= v
	}
	return product
}

// AggregateMin, AggregateMax and AggregateMedian yield 0 for a node without
// inputs so that an unconnected node stays finite.
func AggregateMin(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return MinFloat(inputs)
}

func AggregateMax(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return MaxFloat(inputs)
}

func AggregateMedian(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return Median(inputs)
}

// AggregateMaxAbs returns the input with the largest magnitude, sign kept.
func AggregateMaxAbs(inputs []float64) float64 {
	best := 0.0
	for _, v := range inputs {
		if math.Abs(v) > math.Abs(best) {
			best = v
		}
	}
	return best
}
