package indicator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

// ErrInsufficientData is the only failure the pipeline propagates to its
// caller: not enough common-date rows, or no usable series at all. Every
// downstream stage degrades to a neutral default instead of erroring.
var ErrInsufficientData = errors.New("insufficient aligned data")

// Panel is the dense table the aligner produces: one row per common
// timestamp, one column per surviving series, no missing values.
type Panel struct {
	Timestamps []time.Time
	Columns    []string
	Rows       [][]float64
}

// Len returns the number of panel rows.
func (p *Panel) Len() int {
	return len(p.Rows)
}

// Column extracts column i as its own slice.
func (p *Panel) Column(i int) []float64 {
	out := make([]float64, len(p.Rows))
	for r, row := range p.Rows {
		out[r] = row[i]
	}
	return out
}

// Aligner merges independently sourced economic series into one dense panel
// keyed by date, via an inner join on exact timestamp equality.
type Aligner struct {
	minDataPoints int
	logger        *logrus.Logger
}

func NewAligner(minDataPoints int, logger *logrus.Logger) *Aligner {
	return &Aligner{minDataPoints: minDataPoints, logger: logger}
}

// Align builds the panel from the whitelisted series present in the input.
// Series with no valid observations are dropped; rows missing any value are
// dropped. Returns ErrInsufficientData when no series is usable or fewer
// than minDataPoints common rows survive.
func (a *Aligner) Align(series map[string]*models.EconomicSeries) (*Panel, error) {
	type cleanSeries struct {
		name   string
		values map[time.Time]float64
	}

	var retained []cleanSeries
	for _, name := range models.SeriesWhitelist() {
		s, ok := series[name]
		if !ok || s == nil || len(s.Points) == 0 {
			continue
		}
		values := make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			v := p.Value.InexactFloat64()
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values[p.Timestamp.UTC()] = v
		}
		if len(values) == 0 {
			a.logger.WithField("series", name).Warn("Series has no valid observations, dropping")
			continue
		}
		retained = append(retained, cleanSeries{name: name, values: values})
	}

	if len(retained) == 0 {
		return nil, fmt.Errorf("%w: no usable series", ErrInsufficientData)
	}

	// Inner join: keep only timestamps present in every retained series.
	var common []time.Time
	for ts := range retained[0].values {
		present := true
		for _, cs := range retained[1:] {
			if _, ok := cs.values[ts]; !ok {
				present = false
				break
			}
		}
		if present {
			common = append(common, ts)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	if len(common) < a.minDataPoints {
		return nil, fmt.Errorf("%w: %d common rows, need at least %d", ErrInsufficientData, len(common), a.minDataPoints)
	}

	panel := &Panel{
		Timestamps: common,
		Columns:    make([]string, len(retained)),
		Rows:       make([][]float64, len(common)),
	}
	for i, cs := range retained {
		panel.Columns[i] = cs.name
	}
	for r, ts := range common {
		row := make([]float64, len(retained))
		for i, cs := range retained {
			row[i] = cs.values[ts]
		}
		panel.Rows[r] = row
	}

	a.logger.WithFields(logrus.Fields{
		"rows":    panel.Len(),
		"columns": len(panel.Columns),
	}).Debug("Aligned economic panel")

	return panel, nil
}
