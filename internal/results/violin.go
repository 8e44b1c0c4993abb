package results

import (
	"math"
	"sort"

	"github.com/drew/databoard/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// gridSize is the number of points the density is evaluated at
	gridSize = 100
	// cut extends the density support by this many bandwidths past the data
	cut = 2.0
	// halfWidth is the widest violin's extent from its centre line
	halfWidth = 0.4
)

// Range is a closed display interval
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DensityPoint is one sample of a violin outline
type DensityPoint struct {
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

// Group is the distribution summary of one location
type Group struct {
	Location  string         `json:"location"`
	Count     int            `json:"count"`
	Min       float64        `json:"min"`
	Max       float64        `json:"max"`
	Mean      float64        `json:"mean"`
	Q1        float64        `json:"q1"`
	Median    float64        `json:"median"`
	Q3        float64        `json:"q3"`
	Bandwidth float64        `json:"bandwidth"`
	Density   []DensityPoint `json:"density,omitempty"`
}

// ChartData is everything needed to draw the split violin chart
type ChartData struct {
	Label  string  `json:"label"`
	Axis   Range   `json:"axis"`
	Split  bool    `json:"split"`
	Groups []Group `json:"groups"`
}

// Empty reports whether there is nothing to draw
func (c ChartData) Empty() bool {
	return len(c.Groups) == 0
}

// Summarize groups the table by location, in first-appearance order, and
// estimates a density per group. Widths are normalised across groups so the
// densest violin spans halfWidth. Missing values are left out; a location
// with none left gets no group.
func Summarize(table model.Table) []Group {
	byLoc := make(map[string][]float64)
	for _, r := range table.Records {
		if math.IsNaN(r.Value) {
			continue
		}
		byLoc[r.Location] = append(byLoc[r.Location], r.Value)
	}

	var groups []Group
	var raw [][]float64
	peak := 0.0
	for _, loc := range table.Locations() {
		values := append([]float64(nil), byLoc[loc]...)
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)

		g := Group{
			Location: loc,
			Count:    len(values),
			Min:      values[0],
			Max:      values[len(values)-1],
			Mean:     stat.Mean(values, nil),
			Q1:       percentile(values, 0.25),
			Median:   percentile(values, 0.5),
			Q3:       percentile(values, 0.75),
		}

		var dens []float64
		if bw := scottBandwidth(values); bw > 0 {
			g.Bandwidth = bw
			var xs []float64
			xs, dens = kde(values, bw)
			g.Density = make([]DensityPoint, len(xs))
			for i := range xs {
				g.Density[i] = DensityPoint{X: xs[i], Width: dens[i]}
			}
			peak = math.Max(peak, floats.Max(dens))
		}

		groups = append(groups, g)
		raw = append(raw, dens)
	}

	if peak > 0 {
		for i := range groups {
			for j := range groups[i].Density {
				groups[i].Density[j].Width = raw[i][j] / peak * halfWidth
			}
		}
	}
	return groups
}

// percentile interpolates linearly between the two closest ranks of sorted,
// placing p at rank (n-1)·p
func percentile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo, hi := math.Floor(h), math.Ceil(h)
	a, b := sorted[int(lo)], sorted[int(hi)]
	return a + (h-lo)*(b-a)
}

// scottBandwidth returns σ·n^(-1/5), or 0 when no density can be estimated
func scottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd := stat.StdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return sd * math.Pow(float64(len(values)), -1.0/5.0)
}

// kde evaluates a Gaussian kernel density estimate on an evenly spaced grid
func kde(values []float64, bw float64) (xs, density []float64) {
	lo := values[0] - cut*bw
	hi := values[len(values)-1] + cut*bw

	xs = make([]float64, gridSize)
	floats.Span(xs, lo, hi)

	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	n := float64(len(values))
	density = make([]float64, gridSize)
	for i, x := range xs {
		sum := 0.0
		for _, v := range values {
			sum += kernel.Prob(x - v)
		}
		density[i] = sum / n
	}
	return xs, density
}
