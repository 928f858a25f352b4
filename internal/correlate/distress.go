package correlate

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/entity"
)

// distressGroup accumulates the boring N-values matched to one
// (distress_type, severity) category.
type distressGroup struct {
	distressType string
	severity     string
	nValues      []float64
	pairs        []entity.CorrelationRecord
}

// DiscoverDistressSubsurface correlates pavement distress observations
// with the subsurface conditions recorded by nearby borings. Matched
// pairs are grouped by (distress_type, severity); each group with at
// least MinGroupSize N-value samples gets a consistency score of
// 1/(1 + stddev/mean), and every pair in a scored group is written as a
// correlation record carrying the group score. Groups below the minimum
// are dropped.
func (d *Discoverer) DiscoverDistressSubsurface(ctx context.Context) (Result, error) {
	if d.cfg.MaxDistanceM <= 0 {
		return Result{}, eris.Errorf("correlate: max distance must be positive, got %v", d.cfg.MaxDistanceM)
	}

	observations, err := d.store.ListByType(ctx, entity.TypeSurfaceObservation)
	if err != nil {
		return Result{}, eris.Wrap(err, "correlate: list surface observations")
	}

	computedAt := d.now().UTC()
	groups := make(map[string]*distressGroup)

	for i := range observations {
		obs := &observations[i]
		distressType, _ := obs.Attrs.String("distress_type")
		severity, _ := obs.Attrs.String("severity")
		if distressType == "" {
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return Result{}, eris.Wrap(err, "correlate: rate limit wait")
		}
		borings, err := d.store.FindWithinRadius(ctx, obs.Geometry, d.cfg.MaxDistanceM, entity.TypeBoring)
		if err != nil {
			return Result{}, eris.Wrapf(err, "correlate: borings near %s", obs.ID)
		}

		key := distressType + "|" + severity
		grp := groups[key]
		if grp == nil {
			grp = &distressGroup{distressType: distressType, severity: severity}
			groups[key] = grp
		}

		for j := range borings {
			boring := &borings[j]
			nValue, ok := boring.Attrs.Float("n_value")
			if !ok {
				continue
			}
			dist, err := d.store.MeasureDistance(ctx, obs.Geometry, boring.Geometry)
			if err != nil {
				return Result{}, eris.Wrapf(err, "correlate: distance %s -> %s", obs.ID, boring.ID)
			}
			grp.nValues = append(grp.nValues, nValue)
			grp.pairs = append(grp.pairs, entity.CorrelationRecord{
				SourceType:      obs.Type,
				SourceID:        obs.ID,
				TargetType:      boring.Type,
				TargetID:        boring.ID,
				CorrelationType: "distress_subsurface",
				DistanceM:       dist,
				ComputedAt:      computedAt,
			})
		}
	}

	var recs []entity.CorrelationRecord
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		grp := groups[k]
		if len(grp.nValues) < d.cfg.MinGroupSize {
			d.log.Debug("group below minimum sample size",
				zap.String("distress_type", grp.distressType),
				zap.String("severity", grp.severity),
				zap.Int("samples", len(grp.nValues)))
			continue
		}
		score, ok := GroupScore(grp.nValues)
		if !ok {
			continue
		}
		d.log.Info("distress group scored",
			zap.String("distress_type", grp.distressType),
			zap.String("severity", grp.severity),
			zap.Int("samples", len(grp.nValues)),
			zap.Float64("score", score),
			zap.String("soil_condition", SoilCondition(mean(grp.nValues))))
		for _, p := range grp.pairs {
			p.Score = score
			recs = append(recs, p)
		}
	}

	written, err := d.store.UpsertCorrelations(ctx, recs)
	if err != nil {
		return Result{}, err
	}
	return Result{Sources: len(observations), Pairs: len(recs), Written: written}, nil
}

// GroupScore computes the internal-consistency score for a group of
// N-values: 1/(1 + stddev/mean). A zero standard deviation scores 1.0
// regardless of the mean. Returns false for groups whose mean is zero
// with nonzero spread, where the coefficient of variation is undefined.
func GroupScore(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := mean(values)
	sd := stddev(values, m)
	if sd == 0 {
		return 1.0, true
	}
	if m == 0 {
		return 0, false
	}
	return 1 / (1 + sd/math.Abs(m)), true
}

// SoilCondition buckets a mean SPT N-value into the standard descriptive
// consistency/density label.
func SoilCondition(meanN float64) string {
	switch {
	case meanN < 5:
		return "Very Soft/Loose"
	case meanN < 10:
		return "Soft/Loose"
	case meanN < 30:
		return "Medium"
	case meanN < 50:
		return "Dense/Stiff"
	default:
		return "Very Dense/Hard"
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation around a precomputed mean.
func stddev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}
