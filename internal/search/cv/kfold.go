// Package cv is the fitness harness of the search engine: it decodes a
// candidate into an estimator or a feature subset, scores it under
// k-fold cross-validation, and shields the driver from candidate
// failures.
package cv

import (
	"math/rand"

	"github.com/copyleftdev/SWARMTUNE/internal/search"
)

// Fold is one train/test split over row indices.
type Fold struct {
	Train []int
	Test  []int
}

// KFold produces k shuffled, near-equal folds over n rows. The shuffle
// is driven by the explicit seed, so the same seed always yields the
// same split.
type KFold struct {
	NSplits int
	Seed    int64
}

// Split partitions [0, n) into NSplits folds. Every row appears in
// exactly one test set.
func (k KFold) Split(n int) ([]Fold, error) {
	if k.NSplits < 2 {
		return nil, search.NewErrorf("cv requires at least 2 folds, got %d", k.NSplits).WithComponent("cv")
	}
	if n < k.NSplits {
		return nil, search.NewErrorf("cannot split %d rows into %d folds", n, k.NSplits).WithComponent("cv")
	}

	perm := rand.New(rand.NewSource(k.Seed)).Perm(n)
	folds := make([]Fold, k.NSplits)

	// The first n%k folds take one extra row, sklearn-style.
	size, extra := n/k.NSplits, n%k.NSplits
	start := 0
	for i := range folds {
		stop := start + size
		if i < extra {
			stop++
		}
		test := append([]int(nil), perm[start:stop]...)
		train := make([]int, 0, n-len(test))
		train = append(train, perm[:start]...)
		train = append(train, perm[stop:]...)
		folds[i] = Fold{Train: train, Test: test}
		start = stop
	}
	return folds, nil
}
