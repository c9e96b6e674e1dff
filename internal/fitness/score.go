// Package fitness implements the subsequence-match scoring function the
// planning algorithm uses to pick, among candidate recipes or existing
// graph nodes, the one whose declared context best matches the current
// planning path.
package fitness

import (
	"math"

	"github.com/samgonzalez27/buildplan/internal/core"
)

// Options bundles the scorer's tunable constants. The zero value is not
// valid; use DefaultOptions.
type Options struct {
	Epsilon         float64
	LengthWeight    float64
	EarlyTieBreaker float64
}

// DefaultOptions matches the planner's defaults: ε = 1e-9, length weight 1,
// early tie breaker 0.1.
func DefaultOptions() Options {
	return Options{Epsilon: 1e-9, LengthWeight: 1, EarlyTieBreaker: 0.1}
}

// Score computes fitness(contextPaths, planningPath): the maximum, over
// every candidate context path, of the reversed strict-order match against
// the reversed planning path.
func Score(contextPaths []core.ContextPath, planningPath []core.Contract, opts Options) float64 {
	best := 0.0
	seq := reverseContracts(planningPath)
	for _, cp := range contextPaths {
		ctx := reverseContracts([]core.Contract(cp))
		s := strictOrderMatchScore(ctx, seq, opts)
		if s > best {
			best = s
		}
	}
	return best
}

func reverseContracts(in []core.Contract) []core.Contract {
	out := make([]core.Contract, len(in))
	for i, c := range in {
		out[len(in)-1-i] = c
	}
	return out
}

type window struct {
	start, end int
}

// bestSubsequenceWindow finds the shortest window in seq that contains
// context as a (order-preserving) subsequence, by forward-scanning to a
// completion point and then tightening backward, repeating from just past
// the tightened start until no further completion exists.
func bestSubsequenceWindow(context, seq []core.Contract) (window, bool) {
	m, n := len(context), len(seq)
	if m == 0 {
		return window{0, -1}, true
	}

	var best window
	haveBest := false
	i := 0
	for {
		ci := 0
		j := i
		for j < n && ci < m {
			if seq[j] == context[ci] {
				ci++
			}
			j++
		}
		if ci < m {
			break
		}
		end := j - 1

		ci = m - 1
		k := end
		start := -1
		for k >= i {
			if seq[k] == context[ci] {
				ci--
				if ci < 0 {
					start = k
					break
				}
			}
			k--
		}
		if start == -1 {
			return best, haveBest
		}

		if !haveBest || (end-start) < (best.end-best.start) {
			best = window{start, end}
			haveBest = true
		}

		i = start + 1
		if i >= n {
			break
		}
	}
	return best, haveBest
}

// strictOrderMatchScore is the direct translation of the Python original's
// strict_order_match_score.
func strictOrderMatchScore(context, seq []core.Contract, opts Options) float64 {
	m, n := len(context), len(seq)
	eps := opts.Epsilon
	lw := math.Max(1.0, opts.LengthWeight)

	if m == 0 {
		if n == 0 {
			return 1.0
		}
		return math.Pow(eps/(float64(n)+eps), lw)
	}

	win, ok := bestSubsequenceWindow(context, seq)
	if !ok {
		return 0.0
	}

	spanLen := win.end - win.start + 1
	gaps := spanLen - m

	coverage := math.Pow((float64(m)+eps)/(float64(n)+eps), lw)
	compactness := 1.0 / (1.0 + float64(gaps))
	base := coverage * compactness

	if opts.EarlyTieBreaker > 0 {
		early := 1.0 / (1.0 + float64(win.start))
		return (base + opts.EarlyTieBreaker*early) / (1.0 + opts.EarlyTieBreaker)
	}
	return base
}
