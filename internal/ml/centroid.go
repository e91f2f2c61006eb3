package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// NearestCentroid classifies a sample by the class centroid closest to
// it under the configured metric. Recognized parameters:
//
//	metric: "euclidean" (default) or "manhattan"
//	shrink: non-negative threshold subtracted from centroid offsets
type NearestCentroid struct {
	metric    string
	shrink    float64
	classes   []float64
	centroids *mat.Dense
}

// NewNearestCentroid builds an unfitted nearest-centroid classifier from
// a parameter mapping.
func NewNearestCentroid(params map[string]any) (search.Estimator, error) {
	metric, err := paramString(params, "metric", "euclidean")
	if err != nil {
		return nil, err
	}
	if metric != "euclidean" && metric != "manhattan" {
		return nil, fmt.Errorf("unsupported metric %q", metric)
	}
	shrink, err := paramFloat(params, "shrink", 0)
	if err != nil {
		return nil, err
	}
	if shrink < 0 {
		return nil, fmt.Errorf("shrink must be non-negative, got %v", shrink)
	}
	return &NearestCentroid{metric: metric, shrink: shrink}, nil
}

// Fit computes one centroid per class as the mean of its rows.
func (nc *NearestCentroid) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return fmt.Errorf("empty training set")
	}
	nc.classes = distinctClasses(y)
	nc.centroids = mat.NewDense(len(nc.classes), cols, nil)

	// Global mean, used as the shrinkage target.
	global := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			global[j] += X.At(i, j) / float64(rows)
		}
	}

	for k, class := range nc.classes {
		count := 0.0
		sum := make([]float64, cols)
		for i := 0; i < rows; i++ {
			if y[i] != class {
				continue
			}
			count++
			for j := 0; j < cols; j++ {
				sum[j] += X.At(i, j)
			}
		}
		for j := 0; j < cols; j++ {
			c := sum[j] / count
			if nc.shrink > 0 {
				// Soft-threshold the offset from the global mean.
				d := c - global[j]
				switch {
				case d > nc.shrink:
					d -= nc.shrink
				case d < -nc.shrink:
					d += nc.shrink
				default:
					d = 0
				}
				c = global[j] + d
			}
			nc.centroids.Set(k, j, c)
		}
	}
	return nil
}

// Predict returns the label of the nearest centroid per row.
func (nc *NearestCentroid) Predict(X mat.Matrix) ([]float64, error) {
	dists, err := nc.distances(X)
	if err != nil {
		return nil, err
	}
	rows, _ := dists.Dims()
	pred := make([]float64, rows)
	for i := 0; i < rows; i++ {
		best, bestD := 0, math.Inf(1)
		for k := range nc.classes {
			if d := dists.At(i, k); d < bestD {
				best, bestD = k, d
			}
		}
		pred[i] = nc.classes[best]
	}
	return pred, nil
}

// PredictProba turns centroid distances into a softmax over negated
// distances, so closer centroids receive higher probability.
func (nc *NearestCentroid) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	dists, err := nc.distances(X)
	if err != nil {
		return nil, err
	}
	rows, cols := dists.Dims()
	proba := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		min := math.Inf(1)
		for k := 0; k < cols; k++ {
			if d := dists.At(i, k); d < min {
				min = d
			}
		}
		total := 0.0
		for k := 0; k < cols; k++ {
			w := math.Exp(min - dists.At(i, k))
			proba.Set(i, k, w)
			total += w
		}
		for k := 0; k < cols; k++ {
			proba.Set(i, k, proba.At(i, k)/total)
		}
	}
	return proba, nil
}

// Classes returns the labels seen during Fit, sorted ascending.
func (nc *NearestCentroid) Classes() []float64 { return nc.classes }

func (nc *NearestCentroid) distances(X mat.Matrix) (*mat.Dense, error) {
	if nc.centroids == nil {
		return nil, fmt.Errorf("estimator not fitted")
	}
	rows, cols := X.Dims()
	_, fitCols := nc.centroids.Dims()
	if cols != fitCols {
		return nil, fmt.Errorf("feature count mismatch: fit on %d, got %d", fitCols, cols)
	}
	dists := mat.NewDense(rows, len(nc.classes), nil)
	for i := 0; i < rows; i++ {
		for k := range nc.classes {
			d := 0.0
			for j := 0; j < cols; j++ {
				diff := X.At(i, j) - nc.centroids.At(k, j)
				if nc.metric == "manhattan" {
					d += math.Abs(diff)
				} else {
					d += diff * diff
				}
			}
			if nc.metric == "euclidean" {
				d = math.Sqrt(d)
			}
			dists.Set(i, k, d)
		}
	}
	return dists, nil
}
