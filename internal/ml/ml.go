// Package ml ships small reference classifiers implementing the search
// engine's estimator contract. They exist so the HTTP service and the
// test suite have something real to tune; they are not a modeling
// library.
package ml

import (
	"fmt"
	"sort"

	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// FactoryFor resolves an estimator name into a factory the evaluator can
// call per fold.
func FactoryFor(name string) (search.Factory, error) {
	switch name {
	case "nearest_centroid":
		return NewNearestCentroid, nil
	case "logistic":
		return NewLogistic, nil
	default:
		return nil, search.NewErrorf("unknown estimator %q", name).WithComponent("ml")
	}
}

// paramString reads an optional string parameter.
func paramString(params map[string]any, key, def string) (string, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q: want string, got %T", key, v)
	}
	return s, nil
}

// paramFloat reads an optional numeric parameter, accepting decoded
// integer dimensions as well.
func paramFloat(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("parameter %q: want number, got %T", key, v)
	}
}

// paramInt reads an optional integer parameter.
func paramInt(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	x, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("parameter %q: want int, got %T", key, v)
	}
	return x, nil
}

func distinctClasses(y []float64) []float64 {
	seen := make(map[float64]bool)
	classes := make([]float64, 0, 4)
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	return classes
}
