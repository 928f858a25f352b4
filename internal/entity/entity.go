// Package entity defines the located-entity model shared by every analysis
// procedure, the store adapter interface, and its PostGIS and in-memory
// implementations.
//
// All geometries are WGS84 lng/lat (EPSG:4326). Type-specific fields live in
// an open attribute bag validated lazily at point of use; the keys each
// analysis expects are documented on the EntityType constants.
package entity

import (
	"strconv"
	"time"

	"github.com/twpayne/go-geom"
)

// EntityType tags a located entity with its source dataset.
type EntityType string

// Known entity types and the attribute keys each analysis reads from them.
const (
	// TypeBoring is a geotechnical investigation point.
	// Attrs: total_depth_m, rock_depth_m, groundwater_depth_m, n_value.
	TypeBoring EntityType = "boring"

	// TypeSurfaceObservation is a pavement distress observation line.
	// Attrs: distress_type, severity, rut_depth_mm, iri_value.
	TypeSurfaceObservation EntityType = "surface_observation"

	// TypeMaintenanceRecord is a maintenance activity location.
	// Attrs: activity_type, activity_date (RFC 3339), cost_usd.
	TypeMaintenanceRecord EntityType = "maintenance_record"

	// TypeHazard is a geologic or hydrologic hazard zone.
	// Attrs: hazard_type, status ("active" gates risk scoring).
	TypeHazard EntityType = "hazard"

	// TypeAsset is a managed infrastructure asset.
	// Attrs: condition (excellent|good|fair|poor|critical).
	TypeAsset EntityType = "asset"
)

var knownTypes = map[EntityType]bool{
	TypeBoring:             true,
	TypeSurfaceObservation: true,
	TypeMaintenanceRecord:  true,
	TypeHazard:             true,
	TypeAsset:              true,
}

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool { return knownTypes[t] }

// ParseEntityType converts a string tag into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", UnknownTypeError(s)
	}
	return t, nil
}

// Attributes is the open per-entity key/value bag. Accessors coerce loosely
// typed values (JSON numbers arrive as float64, CSV imports as strings) and
// report absence instead of failing, so validation happens where a value is
// consumed.
type Attributes map[string]any

// Float returns a numeric attribute, coercing int and numeric-string values.
func (a Attributes) Float(key string) (float64, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String returns a string attribute.
func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Time returns a timestamp attribute, accepting time.Time or RFC 3339 /
// date-only strings.
func (a Attributes) Time(key string) (time.Time, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// LocatedEntity is any geolocated record the analyses operate on. Geometry
// is never nil for a stored entity.
type LocatedEntity struct {
	ID        string     `json:"id"`
	Type      EntityType `json:"entity_type"`
	Geometry  geom.T     `json:"-"`
	Attrs     Attributes `json:"attrs,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Point returns the entity geometry as a point, or nil if it is not one.
func (e *LocatedEntity) Point() *geom.Point {
	p, _ := e.Geometry.(*geom.Point)
	return p
}

// CorrelationRecord is a discovered spatial relationship between two
// entities. The (SourceType, SourceID, TargetType, TargetID) tuple is
// unique; recomputation overwrites.
type CorrelationRecord struct {
	SourceType      EntityType `json:"source_type"`
	SourceID        string     `json:"source_id"`
	TargetType      EntityType `json:"target_type"`
	TargetID        string     `json:"target_id"`
	CorrelationType string     `json:"correlation_type"`
	DistanceM       float64    `json:"distance_m"`
	Score           float64    `json:"score"`
	ComputedAt      time.Time  `json:"computed_at"`
}

// SubsurfaceLayer is one depth-ordered material layer of a boring.
type SubsurfaceLayer struct {
	BoringID       string  `json:"boring_id"`
	TopDepthM      float64 `json:"top_depth_m"`
	BottomDepthM   float64 `json:"bottom_depth_m"`
	Material       string  `json:"material_description"`
	Classification string  `json:"uscs_classification,omitempty"`
}

// GridCellStats is the persisted aggregate row for one grid cell.
// Means are nil when the cell holds no contributing entities.
type GridCellStats struct {
	CellID               string    `json:"cell_id"`
	Geometry             geom.T    `json:"-"`
	BoringCount          int       `json:"boring_count"`
	ObservationCount     int       `json:"observation_count"`
	MaintenanceCount     int       `json:"maintenance_count"`
	HazardCount          int       `json:"hazard_count"`
	AvgDepthM            *float64  `json:"avg_depth_m,omitempty"`
	AvgRockDepthM        *float64  `json:"avg_rock_depth_m,omitempty"`
	AvgRutDepthMM        *float64  `json:"avg_rut_depth_mm,omitempty"`
	TotalMaintenanceCost float64   `json:"total_maintenance_cost"`
	RefreshedAt          time.Time `json:"refreshed_at"`
}
