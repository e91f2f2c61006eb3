package cv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKFoldSplit(t *testing.T) {
	folds, err := KFold{NSplits: 4, Seed: 11}.Split(10)
	require.NoError(t, err)
	require.Len(t, folds, 4)

	seen := make(map[int]int)
	for _, fold := range folds {
		assert.Len(t, fold.Train, 10-len(fold.Test))
		for _, i := range fold.Test {
			seen[i]++
		}
		// Train and test never overlap.
		inTest := make(map[int]bool)
		for _, i := range fold.Test {
			inTest[i] = true
		}
		for _, i := range fold.Train {
			assert.False(t, inTest[i], "row %d in both train and test", i)
		}
	}
	// Every row is held out exactly once.
	require.Len(t, seen, 10)
	for i, count := range seen {
		assert.Equal(t, 1, count, "row %d held out %d times", i, count)
	}
}

func TestKFoldDeterministic(t *testing.T) {
	a, err := KFold{NSplits: 3, Seed: 42}.Split(9)
	require.NoError(t, err)
	b, err := KFold{NSplits: 3, Seed: 42}.Split(9)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := KFold{NSplits: 3, Seed: 43}.Split(9)
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different seeds should shuffle differently")
}

func TestKFoldErrors(t *testing.T) {
	_, err := KFold{NSplits: 1, Seed: 0}.Split(10)
	assert.Error(t, err, "fewer than 2 folds")

	_, err = KFold{NSplits: 5, Seed: 0}.Split(3)
	assert.Error(t, err, "more folds than rows")
}
