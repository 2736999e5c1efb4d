// Package stats turns a game's score history into a chartable normal curve
// and an empirical percentile for one subject.
package stats

import (
	"math"

	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
)

// DefaultPoints is the number of curve intervals used when Input.Points is not positive.
const DefaultPoints = 100

// Point is one sample of the scaled density curve.
type Point struct {
	X float64
	Y float64
}

// Input is everything Estimate needs.
type Input struct {
	Scores        []float64
	Subject       *float64
	LowerIsBetter bool
	Points        int
	Chart         games.Chart
}

// Distribution is a derived snapshot; it is never persisted.
type Distribution struct {
	Curve      []Point
	Percentile *float64
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
	Count      int
}

// Degenerate reports whether the population was too flat or empty to chart.
func (d Distribution) Degenerate() bool { return len(d.Curve) == 0 }

// FilterPlausible keeps scores inside bounds. When that would drop more than half the
// samples the unfiltered set is returned and fellBack is true.
func FilterPlausible(scores []float64, bounds games.Range) (kept []float64, fellBack bool) {
	if bounds.IsZero() || len(scores) == 0 {
		return scores, false
	}
	kept = make([]float64, 0, len(scores))
	for _, s := range scores {
		if bounds.Contains(s) {
			kept = append(kept, s)
		}
	}
	if removed := len(scores) - len(kept); removed*2 > len(scores) {
		return scores, true
	}
	return kept, false
}

// Estimate fits a normal curve to in.Scores and ranks in.Subject against them.
// The percentile always comes from the samples, never from the fitted curve.
// Empty or zero-variance input yields an empty curve and a nil percentile.
func Estimate(in Input) Distribution {
	out := Distribution{Curve: []Point{}}
	n := len(in.Scores)
	if n == 0 {
		return out
	}

	lo, hi := in.Scores[0], in.Scores[0]
	var sum float64
	for _, s := range in.Scores {
		sum += s
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	mean := sum / float64(n)
	var sq float64
	for _, s := range in.Scores {
		sq += (s - mean) * (s - mean)
	}
	std := math.Sqrt(sq / float64(n))

	out.Mean, out.StdDev, out.Min, out.Max, out.Count = mean, std, lo, hi, n
	if std == 0 || lo == hi || math.IsNaN(std) || math.IsInf(std, 0) {
		return out
	}

	points := in.Points
	if points <= 0 {
		points = DefaultPoints
	}
	lower, upper := domain(lo, hi, in.Subject, in.Chart)
	width := upper - lower
	step := width / float64(points)
	scale := float64(n) * step

	out.Curve = make([]Point, 0, points+1)
	for i := 0; i <= points; i++ {
		x := lower + float64(i)*step
		out.Curve = append(out.Curve, Point{X: x, Y: normalPDF(x, mean, std) * scale})
	}

	if in.Subject != nil && !math.IsNaN(*in.Subject) {
		p := percentile(in.Scores, *in.Subject, in.LowerIsBetter)
		out.Percentile = &p
	}
	return out
}

func domain(lo, hi float64, subject *float64, chart games.Chart) (float64, float64) {
	if !chart.AnchorZero {
		return lo, hi
	}
	upper := math.Max(chart.Ceiling, hi)
	if subject != nil && !math.IsNaN(*subject) {
		upper = math.Max(upper, *subject)
	}
	return 0, upper
}

func normalPDF(x, mean, std float64) float64 {
	z := (x - mean) / std
	return math.Exp(-0.5*z*z) / (std * math.Sqrt(2*math.Pi))
}

// percentile is the share of scores worse than subject, 0-100.
func percentile(scores []float64, subject float64, lowerIsBetter bool) float64 {
	worse := 0
	for _, s := range scores {
		if (lowerIsBetter && s > subject) || (!lowerIsBetter && s < subject) {
			worse++
		}
	}
	return 100 * float64(worse) / float64(len(scores))
}
