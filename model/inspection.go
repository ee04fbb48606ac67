package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Condition levels an inspector can report for a trail or shelter.
const (
	ConditionGood    = "good"
	ConditionWarning = "warning"
	ConditionClosed  = "closed"
)

type Inspection struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TrailID   string             `bson:"trail_id" json:"trail_id"`
	Inspector string             `bson:"inspector" json:"inspector"`
	Condition string             `bson:"condition" json:"condition"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Photos    []RawPhotoRecord   `bson:"photos,omitempty" json:"photos,omitempty"`
	LonLat    *GeoPoint          `bson:"lonlat,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type GeoPoint struct {
	Type        string    `bson:"type,omitempty"`
	Coordinates []float64 `bson:"coordinates,omitempty"` // [longitude, latitude]
}

func NewGeoPoint(lon, lat float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

// Trail is reference data managed by administrators.
type Trail struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TrailID    string             `bson:"trail_id" json:"trail_id"`
	Name       string             `bson:"name" json:"name"`
	Kind       string             `bson:"kind" json:"kind"` // "trail" or "shelter"
	Difficulty string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
}

// TrailStatus is the public aggregated view: the latest reported condition
// per trail.
type TrailStatus struct {
	TrailID     string    `bson:"_id" json:"trail_id"`
	Condition   string    `bson:"condition" json:"condition"`
	Inspector   string    `bson:"inspector" json:"inspector"`
	InspectedAt time.Time `bson:"inspected_at" json:"inspected_at"`
}
