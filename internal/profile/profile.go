// Package profile builds subsurface cross-sections along a reference
// line. A profile joins every boring within a buffer of the line to its
// depth-ordered layers, positioned by projection onto the line.
package profile

import (
	"context"
	"iter"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gms-foundation/gms-cli/internal/entity"
	internalgeo "github.com/gms-foundation/gms-cli/internal/geo"
)

// Sample is one layer of one boring positioned along the reference line.
type Sample struct {
	BoringID           string  `json:"boring_id"`
	DistanceAlongLineM float64 `json:"distance_along_line_m"`
	FractionAlong      float64 `json:"fraction_along"`
	OffsetM            float64 `json:"offset_m"`
	LayerTopM          float64 `json:"layer_top_m"`
	LayerBottomM       float64 `json:"layer_bottom_m"`
	Material           string  `json:"material"`
	Classification     string  `json:"classification,omitempty"`
}

// Profile is the computed cross-section: a finite sequence of samples
// sorted by (distance along line, layer top). It is a read-only value;
// regenerate to pick up new data.
type Profile struct {
	LineLengthM float64  `json:"line_length_m"`
	Samples     []Sample `json:"samples"`
}

// All returns a restartable iterator over the samples in order.
func (p *Profile) All() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for _, s := range p.Samples {
			if !yield(s) {
				return
			}
		}
	}
}

// Generator computes subsurface profiles from a store.
type Generator struct {
	store entity.Store
	log   *zap.Logger
	title cases.Caser
}

// NewGenerator creates a Generator.
func NewGenerator(store entity.Store) *Generator {
	return &Generator{
		store: store,
		log:   zap.L().With(zap.String("component", "gms.profile")),
		title: cases.Title(language.English),
	}
}

// Generate computes the profile for all borings within bufferWidthM
// meters of the reference line. Borings whose closest approach falls
// beyond either endpoint clamp to that endpoint. A boring with no
// recorded layers contributes no samples.
func (g *Generator) Generate(ctx context.Context, line *geom.LineString, bufferWidthM float64) (*Profile, error) {
	if line == nil || line.NumCoords() < 2 {
		return nil, eris.New("profile: reference line must have at least two points")
	}
	if bufferWidthM <= 0 {
		return nil, eris.Errorf("profile: buffer width must be positive, got %v", bufferWidthM)
	}

	lengthM := internalgeo.LineLengthM(line)
	borings, err := g.store.FindWithinRadius(ctx, line, bufferWidthM, entity.TypeBoring)
	if err != nil {
		return nil, eris.Wrap(err, "profile: find borings in buffer")
	}

	p := &Profile{LineLengthM: lengthM}
	for i := range borings {
		boring := &borings[i]
		pt := boring.Point()
		if pt == nil {
			continue
		}

		proj, err := g.store.ProjectPointOntoLine(ctx, pt, line)
		if err != nil {
			return nil, eris.Wrapf(err, "profile: project boring %s", boring.ID)
		}

		layers, err := g.store.LayersFor(ctx, boring.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "profile: layers for %s", boring.ID)
		}

		for _, layer := range layers {
			p.Samples = append(p.Samples, Sample{
				BoringID:           boring.ID,
				DistanceAlongLineM: proj.Fraction * lengthM,
				FractionAlong:      proj.Fraction,
				OffsetM:            proj.OffsetM,
				LayerTopM:          layer.TopDepthM,
				LayerBottomM:       layer.BottomDepthM,
				Material:           g.title.String(layer.Material),
				Classification:     layer.Classification,
			})
		}
	}

	sort.SliceStable(p.Samples, func(i, j int) bool {
		a, b := p.Samples[i], p.Samples[j]
		if a.DistanceAlongLineM != b.DistanceAlongLineM {
			return a.DistanceAlongLineM < b.DistanceAlongLineM
		}
		return a.LayerTopM < b.LayerTopM
	})

	g.log.Info("profile generated",
		zap.Float64("line_length_m", lengthM),
		zap.Int("borings", len(borings)),
		zap.Int("samples", len(p.Samples)))

	return p, nil
}
