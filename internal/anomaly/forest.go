package anomaly

import (
	"math"
	"math/rand"
)

// Detector scores a batch of feature vectors, returning one anomaly score per
// vector in input order. Higher scores mean more anomalous. Implementations
// fit on the batch itself; there is no incremental mode.
type Detector interface {
	Score(batch [][]float64) []float64
}

// IsolationForest is an ensemble of randomized binary partition trees. A
// point's score is derived from the average number of random splits needed to
// isolate it: points isolated quickly are more anomalous.
//
// With a fixed Seed the scoring is deterministic for a given batch.
type IsolationForest struct {
	Trees      int
	SampleSize int
	Seed       int64
}

const (
	defaultTrees      = 100
	defaultSampleSize = 256
)

// NewIsolationForest returns a forest with the standard ensemble parameters.
func NewIsolationForest(seed int64) *IsolationForest {
	return &IsolationForest{
		Trees:      defaultTrees,
		SampleSize: defaultSampleSize,
		Seed:       seed,
	}
}

type treeNode struct {
	splitDim int
	splitVal float64
	left     *treeNode
	right    *treeNode
	size     int // external nodes only
}

// Score fits the forest on the batch and returns per-vector anomaly scores in
// [0,1], normalized as s = 2^(-E[h]/c(sampleSize)).
func (f *IsolationForest) Score(batch [][]float64) []float64 {
	n := len(batch)
	if n == 0 {
		return nil
	}

	trees := f.Trees
	if trees <= 0 {
		trees = defaultTrees
	}
	sample := f.SampleSize
	if sample <= 0 {
		sample = defaultSampleSize
	}
	if sample > n {
		sample = n
	}

	rng := rand.New(rand.NewSource(f.Seed))
	heightLimit := int(math.Ceil(math.Log2(float64(sample) + 1)))

	roots := make([]*treeNode, trees)
	for t := 0; t < trees; t++ {
		idx := rng.Perm(n)[:sample]
		roots[t] = buildTree(batch, idx, 0, heightLimit, rng)
	}

	norm := avgPathLength(sample)
	scores := make([]float64, n)
	for i, vec := range batch {
		var total float64
		for _, root := range roots {
			total += pathLength(vec, root, 0)
		}
		mean := total / float64(trees)
		scores[i] = math.Pow(2, -mean/norm)
	}
	return scores
}

func buildTree(batch [][]float64, idx []int, depth, limit int, rng *rand.Rand) *treeNode {
	if len(idx) <= 1 || depth >= limit {
		return &treeNode{size: len(idx)}
	}

	dims := len(batch[idx[0]])

	// Pick a dimension that still has spread; if every dimension is constant
	// over this subset the points are indistinguishable and the node is a leaf.
	splittable := make([]int, 0, dims)
	for d := 0; d < dims; d++ {
		lo, hi := minMax(batch, idx, d)
		if hi > lo {
			splittable = append(splittable, d)
		}
	}
	if len(splittable) == 0 {
		return &treeNode{size: len(idx)}
	}

	dim := splittable[rng.Intn(len(splittable))]
	lo, hi := minMax(batch, idx, dim)
	split := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if batch[i][dim] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		splitDim: dim,
		splitVal: split,
		left:     buildTree(batch, left, depth+1, limit, rng),
		right:    buildTree(batch, right, depth+1, limit, rng),
	}
}

func minMax(batch [][]float64, idx []int, dim int) (lo, hi float64) {
	lo, hi = batch[idx[0]][dim], batch[idx[0]][dim]
	for _, i := range idx[1:] {
		v := batch[i][dim]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func pathLength(vec []float64, node *treeNode, depth int) float64 {
	if node.left == nil {
		return float64(depth) + avgPathLength(node.size)
	}
	if vec[node.splitDim] < node.splitVal {
		return pathLength(vec, node.left, depth+1)
	}
	return pathLength(vec, node.right, depth+1)
}

const eulerGamma = 0.5772156649015329

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n points; it normalizes path lengths across subtree sizes.
func avgPathLength(n int) float64 {
	switch {
	case n > 2:
		h := math.Log(float64(n-1)) + eulerGamma
		return 2*h - 2*float64(n-1)/float64(n)
	case n == 2:
		return 1
	default:
		return 0
	}
}
