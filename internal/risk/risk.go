// Package risk scores infrastructure assets on a deterministic [0,1]
// scale from asset condition, nearby active hazards, and recent
// emergency maintenance. The score is a heuristic, not a statistical
// model; every term is explainable from the returned assessment.
package risk

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/config"
	"github.com/gms-foundation/gms-cli/internal/entity"
)

// conditionBase maps the five condition categories to their base scores.
// Unrecognized or unset conditions fall back to the 0.5 midpoint.
var conditionBase = map[string]float64{
	"excellent": 0.1,
	"good":      0.3,
	"fair":      0.5,
	"poor":      0.7,
	"critical":  0.9,
}

const defaultBase = 0.5

// Assessment is the scored result with its contributing terms.
type Assessment struct {
	AssetID         string    `json:"asset_id"`
	Condition       string    `json:"condition"`
	BaseScore       float64   `json:"base_score"`
	ActiveHazards   int       `json:"active_hazards"`
	EmergencyEvents int       `json:"emergency_events"`
	Score           float64   `json:"score"`
	ScoredAt        time.Time `json:"scored_at"`
}

// Scorer computes composite risk scores for assets.
type Scorer struct {
	store entity.Store
	cfg   config.RiskConfig
	log   *zap.Logger
	now   func() time.Time
}

// NewScorer creates a Scorer.
func NewScorer(store entity.Store, cfg config.RiskConfig) *Scorer {
	return &Scorer{
		store: store,
		cfg:   cfg,
		log:   zap.L().With(zap.String("component", "gms.risk")),
		now:   time.Now,
	}
}

// Score computes the risk assessment for one asset. A missing asset
// surfaces the store's not-found error; no partial score is returned.
func (s *Scorer) Score(ctx context.Context, assetID string) (Assessment, error) {
	asset, err := s.store.Get(ctx, assetID)
	if err != nil {
		return Assessment{}, eris.Wrapf(err, "risk: asset %s", assetID)
	}

	condition, _ := asset.Attrs.String("condition")
	base, ok := conditionBase[condition]
	if !ok {
		base = defaultBase
	}

	hazards, err := s.activeHazards(ctx, asset)
	if err != nil {
		return Assessment{}, err
	}
	emergencies, err := s.recentEmergencies(ctx, asset)
	if err != nil {
		return Assessment{}, err
	}

	score := base +
		float64(hazards)*s.cfg.HazardIncrement +
		float64(emergencies)*s.cfg.EmergencyIncrement
	if score > 1 {
		score = 1
	}

	a := Assessment{
		AssetID:         assetID,
		Condition:       condition,
		BaseScore:       base,
		ActiveHazards:   hazards,
		EmergencyEvents: emergencies,
		Score:           score,
		ScoredAt:        s.now().UTC(),
	}
	s.log.Info("asset scored",
		zap.String("asset_id", assetID),
		zap.String("condition", condition),
		zap.Int("active_hazards", hazards),
		zap.Int("emergency_events", emergencies),
		zap.Float64("score", score))
	return a, nil
}

func (s *Scorer) activeHazards(ctx context.Context, asset *entity.LocatedEntity) (int, error) {
	hazards, err := s.store.FindWithinRadius(ctx, asset.Geometry, s.cfg.HazardRadiusM, entity.TypeHazard)
	if err != nil {
		return 0, eris.Wrapf(err, "risk: hazards near %s", asset.ID)
	}
	var n int
	for i := range hazards {
		if status, _ := hazards[i].Attrs.String("status"); status == "active" {
			n++
		}
	}
	return n, nil
}

func (s *Scorer) recentEmergencies(ctx context.Context, asset *entity.LocatedEntity) (int, error) {
	records, err := s.store.FindWithinRadius(ctx, asset.Geometry, s.cfg.EmergencyRadiusM, entity.TypeMaintenanceRecord)
	if err != nil {
		return 0, eris.Wrapf(err, "risk: maintenance near %s", asset.ID)
	}
	cutoff := s.now().UTC().AddDate(-s.cfg.EmergencyWindowYrs, 0, 0)
	var n int
	for i := range records {
		rec := &records[i]
		if activity, _ := rec.Attrs.String("activity_type"); activity != "emergency" {
			continue
		}
		when, ok := rec.Attrs.Time("activity_date")
		if !ok || when.Before(cutoff) {
			continue
		}
		n++
	}
	return n, nil
}
