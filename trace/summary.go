package trace

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SummaryOutput is the common type of fit summaries. A multi-chain posterior
// summarizes into a *Summary table with convergence diagnostics; a point
// estimate (one chain, one draw) summarizes into a single-column *Series,
// since diagnostics are meaningless with one draw.
type SummaryOutput interface {
	summaryOutput()
}

// SummaryRow holds the per-variable statistics of a posterior summary.
type SummaryRow struct {
	Var     string
	Mean    float64
	SD      float64
	HDILow  float64
	HDIHigh float64
	ESSBulk float64
	RHat    float64
}

// Summary is a per-parameter summary table (one row per posterior variable
// element).
type Summary struct {
	HDIProb float64
	Rows    []SummaryRow
}

func (*Summary) summaryOutput() {}

// Row returns the row for a variable label, e.g. "x" or "w[2]".
func (s *Summary) Row(label string) (SummaryRow, bool) {
	for _, r := range s.Rows {
		if r.Var == label {
			return r, true
		}
	}
	return SummaryRow{}, false
}

// Series is a single named column of values indexed by variable label. It is
// the summary shape of a MAP fit and is always named "value".
type Series struct {
	Name   string
	Index  []string
	Values []float64
}

func (*Series) summaryOutput() {}

// Value returns the entry for a variable label.
func (s *Series) Value(label string) (float64, bool) {
	for i, l := range s.Index {
		if l == label {
			return s.Values[i], true
		}
	}
	return 0, false
}

// SummaryOptions configures Summarize.
type SummaryOptions struct {
	// HDIProb is the probability mass of the highest-density interval.
	HDIProb float64
}

// Summarize computes per-variable posterior statistics: mean, standard
// deviation, HDI bounds, bulk effective sample size and split R-hat.
func Summarize(p *Posterior, optFns ...func(o *SummaryOptions)) (*Summary, error) {
	opts := SummaryOptions{
		HDIProb: 0.94,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HDIProb <= 0 || opts.HDIProb >= 1 {
		return nil, fmt.Errorf("trace: HDI probability must be in (0, 1), got %g", opts.HDIProb)
	}
	if p == nil || len(p.names) == 0 {
		return nil, fmt.Errorf("trace: cannot summarize an empty posterior")
	}

	summary := &Summary{HDIProb: opts.HDIProb}
	for _, name := range p.names {
		v := p.vars[name]
		for k := 0; k < v.Size; k++ {
			// Per-chain series for this element.
			chains := make([][]float64, v.Chains)
			for c := 0; c < v.Chains; c++ {
				draws := make([]float64, v.Draws)
				for d := 0; d < v.Draws; d++ {
					draws[d] = v.At(c, d, k)
				}
				chains[c] = draws
			}

			pooled := make([]float64, 0, v.Chains*v.Draws)
			for _, ch := range chains {
				pooled = append(pooled, ch...)
			}

			low, high := hdi(pooled, opts.HDIProb)
			summary.Rows = append(summary.Rows, SummaryRow{
				Var:     elementLabel(name, k, v.Size),
				Mean:    stat.Mean(pooled, nil),
				SD:      stat.StdDev(pooled, nil),
				HDILow:  low,
				HDIHigh: high,
				ESSBulk: essBulk(chains),
				RHat:    splitRHat(chains),
			})
		}
	}
	return summary, nil
}

// PointSummary renders a one-chain, one-draw posterior as a single-column
// series named "value".
func PointSummary(p *Posterior) (*Series, error) {
	if p == nil || len(p.names) == 0 {
		return nil, fmt.Errorf("trace: cannot summarize an empty posterior")
	}
	if p.Chains() != 1 || p.Draws() != 1 {
		return nil, fmt.Errorf("trace: point summary requires a (1, 1) posterior, got (%d, %d)", p.Chains(), p.Draws())
	}
	s := &Series{Name: "value"}
	for _, name := range p.names {
		v := p.vars[name]
		for k := 0; k < v.Size; k++ {
			s.Index = append(s.Index, elementLabel(name, k, v.Size))
			s.Values = append(s.Values, v.At(0, 0, k))
		}
	}
	return s, nil
}

func elementLabel(name string, k, size int) string {
	if size == 1 {
		return name
	}
	return fmt.Sprintf("%s[%d]", name, k)
}

// hdi computes the narrowest interval containing prob mass of the samples.
func hdi(samples []float64, prob float64) (low, high float64) {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	n := len(sorted)
	window := int(math.Ceil(prob * float64(n)))
	if window < 1 {
		window = 1
	}
	if window >= n {
		return sorted[0], sorted[n-1]
	}

	bestLow, bestHigh := sorted[0], sorted[window-1]
	bestWidth := bestHigh - bestLow
	for i := 1; i+window <= n; i++ {
		width := sorted[i+window-1] - sorted[i]
		if width < bestWidth {
			bestWidth = width
			bestLow, bestHigh = sorted[i], sorted[i+window-1]
		}
	}
	return bestLow, bestHigh
}

// splitRHat computes the split-chain potential scale reduction factor.
// Each chain is split in half so within-chain non-stationarity inflates the
// statistic. Returns NaN when there are not enough draws.
func splitRHat(chains [][]float64) float64 {
	var halves [][]float64
	for _, ch := range chains {
		if len(ch) < 4 {
			return math.NaN()
		}
		mid := len(ch) / 2
		halves = append(halves, ch[:mid], ch[mid:mid*2])
	}

	n := float64(len(halves[0]))

	means := make([]float64, len(halves))
	variances := make([]float64, len(halves))
	for i, h := range halves {
		means[i] = stat.Mean(h, nil)
		variances[i] = stat.Variance(h, nil)
	}

	w := stat.Mean(variances, nil)
	b := n * stat.Variance(means, nil)
	if w == 0 {
		if b == 0 {
			return 1
		}
		return math.Inf(1)
	}
	varPlus := (n-1)/n*w + b/n
	return math.Sqrt(varPlus / w)
}

// essBulk estimates the bulk effective sample size using chain-averaged
// autocorrelations with Geyer's initial positive sequence truncation.
func essBulk(chains [][]float64) float64 {
	m := len(chains)
	n := len(chains[0])
	total := float64(m * n)
	if n < 4 {
		return math.NaN()
	}

	maxLag := n / 2
	rho := make([]float64, maxLag)
	for lag := 0; lag < maxLag; lag++ {
		var acc float64
		var valid int
		for _, ch := range chains {
			mean := stat.Mean(ch, nil)
			variance := stat.Variance(ch, nil)
			if variance == 0 {
				continue
			}
			var cov float64
			for i := 0; i+lag < n; i++ {
				cov += (ch[i] - mean) * (ch[i+lag] - mean)
			}
			cov /= float64(n)
			acc += cov / variance
			valid++
		}
		if valid == 0 {
			return math.NaN()
		}
		rho[lag] = acc / float64(valid)
	}

	// Sum autocorrelations while adjacent pairs stay positive.
	tau := 1.0
	for lag := 1; lag+1 < maxLag; lag += 2 {
		pair := rho[lag] + rho[lag+1]
		if pair < 0 {
			break
		}
		tau += 2 * pair
	}
	if tau < 1 {
		tau = 1
	}
	return total / tau
}
