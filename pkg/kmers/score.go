// Similarity scoring over k-mer sets.
//
// Scores are raw shared-kmer counts, not Jaccard or another normalized
// measure: absolute overlap tracks evolutionary distance well for the
// seed marker protein at the usual window sizes (K=8 protein, K=10-16
// DNA) and avoids division instability on short sequences. Thresholds
// are calibrated per K (K=8 with minimum score 100 is the stock pairing).

package kmers

import "fmt"

// Shared counts the k-mers present in both sets. Symmetric;
// Shared(a, a) == len(a) and Shared(a, b) <= min(len(a), len(b)).
func Shared(a, b Set) int {
	// Walk the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for mer := range a {
		if b[mer] {
			n++
		}
	}
	return n
}

// ScoreSequences extracts both protein k-mer sets and counts the overlap.
func ScoreSequences(seqA, seqB string, k int) int {
	return Shared(Extract(seqA, k), Extract(seqB, k))
}

// Strategy names one of the closed set of scoring variants. The
// representative index always scores with StrategyRaw; StrategyScaled
// exists for distance reporting where sequence lengths differ widely.
type Strategy int

const (
	StrategyRaw Strategy = iota
	StrategyScaled
)

func (s Strategy) String() string {
	switch s {
	case StrategyRaw:
		return "raw"
	case StrategyScaled:
		return "scaled"
	default:
		return "unknown"
	}
}

func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "raw", "":
		return StrategyRaw, nil
	case "scaled":
		return StrategyScaled, nil
	default:
		return StrategyRaw, fmt.Errorf("unknown scoring strategy %q (want raw or scaled)", name)
	}
}

// Score applies the strategy to a pair of sets. Raw reports the shared
// count; scaled reports shared k-mers per hundred k-mers of the smaller
// set. Either set empty scores 0 under both strategies.
func (s Strategy) Score(a, b Set) float64 {
	shared := Shared(a, b)
	switch s {
	case StrategyScaled:
		min := len(a)
		if len(b) < min {
			min = len(b)
		}
		if min == 0 {
			return 0
		}
		return 100 * float64(shared) / float64(min)
	default:
		return float64(shared)
	}
}
