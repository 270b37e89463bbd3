package neat

import (
	"fmt"
	"math"
)

// ActivationFunc transforms the aggregated, response-scaled input of a node.
type ActivationFunc func(x float64) float64

// ActivationFunctions maps the names usable in activation_options to functions.
var ActivationFunctions = map[string]ActivationFunc{
	"sigmoid":  Sigmoid,
	"tanh":     Tanh,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"gaussian": Gaussian,
	"absolute": Absolute,
	"abs":      Absolute,
	"sine":     Sine,
	"cosine":   Cosine,
	"inv":      Inv,
	"log":      Log,
	"exp":      Exp,
	"hat":      Hat,
	"square":   Square,
	"cube":     Cube,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationFunc, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Sigmoid is the logistic function with a steepness of 4.9.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-4.9*clamp(x, -60, 60)))
}

func Tanh(x float64) float64 { return math.Tanh(x) }

func ReLU(x float64) float64 { return math.Max(0, x) }

func Identity(x float64) float64 { return x }

// Clamped limits x to [-1, 1].
func Clamped(x float64) float64 { return clamp(x, -1, 1) }

func Gaussian(x float64) float64 {
	x = clamp(x, -3.4, 3.4)
	return math.Exp(-5 * x * x)
}

func Absolute(x float64) float64 { return math.Abs(x) }

func Sine(x float64) float64 { return math.Sin(x) }

func Cosine(x float64) float64 { return math.Cos(x) }

// Inv returns 1/x, or 0 for x == 0.
func Inv(x float64) float64 {
	if x == 0 {
		return 0
	}
	return 1 / x
}

// Log is the natural logarithm with its input floored at 1e-7.
func Log(x float64) float64 { return math.Log(math.Max(1e-7, x)) }

func Exp(x float64) float64 { return math.Exp(clamp(x, -60, 60)) }

// Hat is a triangular pulse of height 1 centred on 0.
func Hat(x float64) float64 { return math.Max(0, 1-math.Abs(x)) }

func Square(x float64) float64 { return x * x }

func Cube(x float64) float64 { return x * x * x }
