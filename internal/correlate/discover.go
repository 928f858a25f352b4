// Package correlate discovers spatial relationships between located
// entities and persists them as correlation records. Discovery is
// idempotent per record key, so scheduled reruns overwrite stale scores
// instead of accumulating duplicates.
package correlate

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gms-foundation/gms-cli/internal/config"
	"github.com/gms-foundation/gms-cli/internal/entity"
)

// Discoverer finds proximity correlations between entity types.
type Discoverer struct {
	store   entity.Store
	cfg     config.CorrelateConfig
	limiter *rate.Limiter
	log     *zap.Logger
	now     func() time.Time
}

// Result summarizes one discovery run.
type Result struct {
	Sources int   `json:"sources"`
	Pairs   int   `json:"pairs"`
	Written int64 `json:"written"`
}

// NewDiscoverer creates a Discoverer. StoreQPS caps the rate of spatial
// queries issued against the store; zero means unlimited.
func NewDiscoverer(store entity.Store, cfg config.CorrelateConfig) *Discoverer {
	limit := rate.Inf
	if cfg.StoreQPS > 0 {
		limit = rate.Limit(cfg.StoreQPS)
	}
	return &Discoverer{
		store:   store,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     zap.L().With(zap.String("component", "gms.correlate")),
		now:     time.Now,
	}
}

// Discover links every source-type entity to the target-type entities
// within the configured max distance. Score decreases linearly from 1.0
// at zero distance to 0.0 at the max distance. Unknown type tags fail
// before any store write.
func (d *Discoverer) Discover(ctx context.Context, source, target entity.EntityType, correlationType string) (Result, error) {
	if !source.Valid() {
		return Result{}, entity.UnknownTypeError(string(source))
	}
	if !target.Valid() {
		return Result{}, entity.UnknownTypeError(string(target))
	}
	if d.cfg.MaxDistanceM <= 0 {
		return Result{}, eris.Errorf("correlate: max distance must be positive, got %v", d.cfg.MaxDistanceM)
	}

	sources, err := d.store.ListByType(ctx, source)
	if err != nil {
		return Result{}, eris.Wrapf(err, "correlate: list %s", source)
	}

	d.log.Info("discovery started",
		zap.String("source_type", string(source)),
		zap.String("target_type", string(target)),
		zap.Int("sources", len(sources)),
		zap.Float64("max_distance_m", d.cfg.MaxDistanceM))

	var (
		mu   sync.Mutex
		recs []entity.CorrelationRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.cfg.Concurrency, 1))
	computedAt := d.now().UTC()

	for i := range sources {
		src := sources[i]
		g.Go(func() error {
			pairs, err := d.pairsFor(gctx, &src, target, correlationType, computedAt)
			if err != nil {
				return err
			}
			mu.Lock()
			recs = append(recs, pairs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	written, err := d.store.UpsertCorrelations(ctx, recs)
	if err != nil {
		return Result{}, err
	}

	d.log.Info("discovery finished",
		zap.String("source_type", string(source)),
		zap.String("target_type", string(target)),
		zap.Int("pairs", len(recs)),
		zap.Int64("written", written))

	return Result{Sources: len(sources), Pairs: len(recs), Written: written}, nil
}

func (d *Discoverer) pairsFor(ctx context.Context, src *entity.LocatedEntity, target entity.EntityType, correlationType string, computedAt time.Time) ([]entity.CorrelationRecord, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "correlate: rate limit wait")
	}

	matches, err := d.store.FindWithinRadius(ctx, src.Geometry, d.cfg.MaxDistanceM, target)
	if err != nil {
		return nil, eris.Wrapf(err, "correlate: radius search for %s", src.ID)
	}

	var recs []entity.CorrelationRecord
	for i := range matches {
		tgt := &matches[i]
		if tgt.ID == src.ID {
			continue
		}
		dist, err := d.store.MeasureDistance(ctx, src.Geometry, tgt.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "correlate: distance %s -> %s", src.ID, tgt.ID)
		}
		recs = append(recs, entity.CorrelationRecord{
			SourceType:      src.Type,
			SourceID:        src.ID,
			TargetType:      tgt.Type,
			TargetID:        tgt.ID,
			CorrelationType: correlationType,
			DistanceM:       dist,
			Score:           Score(dist, d.cfg.MaxDistanceM),
			ComputedAt:      computedAt,
		})
	}
	return recs, nil
}

// Score maps a pair distance to [0,1]: 1.0 at zero distance, decreasing
// linearly to 0.0 at maxDistance and beyond.
func Score(distanceM, maxDistanceM float64) float64 {
	if maxDistanceM <= 0 {
		return 0
	}
	s := 1 - distanceM/maxDistanceM
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
