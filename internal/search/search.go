// Package search defines the shared contracts of the SWARMTUNE search
// engine: the estimator capability interface the core tunes against, the
// scoring contract, and the immutable result of a finished search.
package search

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Estimator is the capability interface a model must expose to be tuned.
// The core never depends on a concrete model type; anything that can be
// constructed from a parameter mapping and fitted to data qualifies.
type Estimator interface {
	// Fit trains the estimator on X (rows = samples) and the aligned
	// target vector y.
	Fit(X mat.Matrix, y []float64) error

	// Predict returns one predicted label per row of X.
	Predict(X mat.Matrix) ([]float64, error)

	// PredictProba returns an (n x k) matrix of class probabilities,
	// with columns ordered as Classes.
	PredictProba(X mat.Matrix) (*mat.Dense, error)

	// Classes returns the distinct labels seen during Fit, sorted
	// ascending. Column j of PredictProba corresponds to Classes()[j].
	Classes() []float64
}

// Factory constructs a fresh estimator from a decoded parameter mapping.
// A factory must return an error for parameter combinations it cannot
// honor; the evaluator treats such candidates as non-viable rather than
// aborting the search.
type Factory func(params map[string]any) (Estimator, error)

// Scorer computes a scalar quality score for a fitted estimator on
// held-out data. Higher is better; scorers for losses negate the loss.
type Scorer func(est Estimator, X mat.Matrix, y []float64) (float64, error)

// Result is the outcome of a completed search. It is assembled once,
// after the generational loop terminates, and never mutated.
type Result struct {
	// BestScore is the mean cross-validated score of the winning
	// candidate.
	BestScore float64

	// BestParams maps dimension names to decoded values. Set in
	// hyperparameter tuning mode, nil otherwise.
	BestParams map[string]any

	// BestFeatures lists the selected column indices of X, ascending.
	// Set in feature selection mode, nil otherwise.
	BestFeatures []int

	// BestProba holds held-out class probabilities for the winning
	// candidate, one row per sample of X in original order.
	BestProba *mat.Dense

	// Iterations is the number of generations actually run.
	Iterations int

	// Stopped reports whether the run ended through early stopping
	// rather than exhausting the generation budget.
	Stopped bool
}

// Searcher runs a full search against a dataset.
type Searcher interface {
	Fit(ctx context.Context, X *mat.Dense, y []float64) (*Result, error)
}
