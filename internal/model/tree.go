package model

import (
	"math/rand/v2"
	"slices"

	"github.com/linuxmatters/voxrisk/internal/features"
)

// leafFeature marks a leaf node
const leafFeature = -1

// Node is one node of a flattened decision tree. Internal nodes route
// x[Feature] <= Threshold to Left and everything else to Right; leaves carry
// the positive-class fraction of the bootstrap samples that reached them.
type Node struct {
	Feature   int     `msgpack:"f"`
	Threshold float64 `msgpack:"t"`
	Left      int     `msgpack:"l"`
	Right     int     `msgpack:"r"`
	Positive  float64 `msgpack:"p"`
	Samples   int     `msgpack:"n"`
}

// Tree is a CART classification tree stored as a node slice rooted at 0
type Tree struct {
	Nodes []Node `msgpack:"nodes"`
}

// leafValue walks the tree for x and returns the leaf's positive fraction
func (t *Tree) leafValue(x *features.Vector) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leafFeature {
			return n.Positive
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeBuilder grows one tree on a bootstrap sample
type treeBuilder struct {
	params      ForestParams
	maxFeatures int
	x           []features.Vector
	y           []int
	rng         *rand.Rand
	nodes       []Node
	importance  [features.Count]float64
	total       float64
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// split is the best candidate found for a node
type split struct {
	feature   int
	threshold float64
	impurity  float64 // weighted child impurity
	ok        bool
}

func growTree(examples []Example, params ForestParams, maxFeatures int, seed uint64) (Tree, [features.Count]float64) {
	b := &treeBuilder{
		params:      params,
		maxFeatures: maxFeatures,
		x:           make([]features.Vector, len(examples)),
		y:           make([]int, len(examples)),
		rng:         rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)),
	}
	for i, ex := range examples {
		b.x[i] = ex.Features
		b.y[i] = ex.Label
	}

	n := len(examples)
	sample := make([]int, n)
	for i := range sample {
		sample[i] = b.rng.IntN(n)
	}
	b.total = float64(n)

	b.grow(sample, 0)
	return Tree{Nodes: b.nodes}, b.importance
}

func (b *treeBuilder) positives(sample []int) int {
	pos := 0
	for _, i := range sample {
		pos += b.y[i]
	}
	return pos
}

// grow appends the subtree for sample and returns its root index
func (b *treeBuilder) grow(sample []int, depth int) int {
	n := len(sample)
	pos := b.positives(sample)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		Feature:  leafFeature,
		Positive: float64(pos) / float64(n),
		Samples:  n,
	})

	if pos == 0 || pos == n ||
		n < b.params.MinSamplesSplit ||
		n < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) {
		return idx
	}

	best := b.bestSplit(sample)
	if !best.ok {
		return idx
	}

	var left, right []int
	for _, i := range sample {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	parent := gini(pos, n)
	b.importance[best.feature] += float64(n) / b.total * (parent - best.impurity)

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Feature = best.feature
	b.nodes[idx].Threshold = best.threshold
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

// bestSplit draws features in random order and evaluates them until
// maxFeatures non-constant features have been tried, or all features have
// been visited
func (b *treeBuilder) bestSplit(sample []int) split {
	best := split{}
	order := b.rng.Perm(features.Count)
	sorted := slices.Clone(sample)
	tried := 0

	for _, f := range order {
		if tried >= b.maxFeatures {
			break
		}
		slices.SortFunc(sorted, func(a, c int) int {
			va, vc := b.x[a][f], b.x[c][f]
			switch {
			case va < vc:
				return -1
			case va > vc:
				return 1
			}
			return 0
		})
		if b.x[sorted[0]][f] == b.x[sorted[len(sorted)-1]][f] {
			continue
		}
		tried++

		if cand := b.scanFeature(sorted, f); cand.ok && (!best.ok || cand.impurity < best.impurity) {
			best = cand
		}
	}
	return best
}

// scanFeature finds the lowest weighted Gini threshold for feature f over
// sample sorted by that feature
func (b *treeBuilder) scanFeature(sorted []int, f int) split {
	n := len(sorted)
	totalPos := b.positives(sorted)
	minLeaf := max(b.params.MinSamplesLeaf, 1)

	best := split{feature: f}
	leftPos := 0
	for i := 0; i < n-1; i++ {
		leftPos += b.y[sorted[i]]
		lo, hi := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
		if lo == hi {
			continue
		}
		nl, nr := i+1, n-i-1
		if nl < minLeaf || nr < minLeaf {
			continue
		}

		impurity := (float64(nl)*gini(leftPos, nl) + float64(nr)*gini(totalPos-leftPos, nr)) / float64(n)
		if !best.ok || impurity < best.impurity {
			threshold := lo + (hi-lo)/2
			if threshold >= hi {
				threshold = lo
			}
			best.threshold = threshold
			best.impurity = impurity
			best.ok = true
		}
	}
	return best
}
