package model

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Provenance of an extracted coordinate. "browser" is kept for compatibility
// with documents written by the web client.
const (
	SourceEXIF    = "exif"
	SourceBrowser = "browser"
)

// Coordinates is a decimal-degree GPS position, rounded to six decimal
// places.
type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Valid reports whether the position is a plausible point on Earth.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// PhotoMetadata is the result of metadata extraction for one uploaded image.
// Partial results are normal: a timestamp without coordinates or the other
// way around.
type PhotoMetadata struct {
	Filename    string       `json:"filename"`
	Coordinates *Coordinates `json:"coordinates"`
	Timestamp   *time.Time   `json:"timestamp"`
	HasGPSData  bool         `json:"hasGpsData"`
	GPSSource   string       `json:"gpsSource,omitempty"`
}

// PhotoRecord is the current persisted shape of a photo entry.
type PhotoRecord struct {
	URL          string       `bson:"url" json:"url"`
	ThumbnailURL string       `bson:"thumbnail_url,omitempty" json:"thumbnailUrl,omitempty"`
	Filename     string       `bson:"filename" json:"filename"`
	Coordinates  *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Timestamp    *time.Time   `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
	Caption      string       `bson:"caption,omitempty" json:"caption,omitempty"`
	GPSSource    string       `bson:"gps_source,omitempty" json:"gpsSource,omitempty"`
}

// RawPhotoRecord carries either historical shape of a stored photo entry:
// early documents persisted a bare URL string, current ones persist a full
// PhotoRecord. Decoding never fails; an unrecognized shape becomes the empty
// union, which Normalize turns into a safe default record.
type RawPhotoRecord struct {
	Legacy  string
	Current *PhotoRecord
}

// CurrentPhoto wraps a record in the union, for newly written documents.
func CurrentPhoto(rec PhotoRecord) RawPhotoRecord {
	return RawPhotoRecord{Current: &rec}
}

// Normalize converts either shape to the current one. It is total and
// idempotent: normalizing a normalized record changes nothing.
func (r RawPhotoRecord) Normalize() PhotoRecord {
	switch {
	case r.Current != nil:
		rec := *r.Current
		if rec.Filename == "" {
			rec.Filename = filenameFromURL(rec.URL)
		}
		return rec
	case r.Legacy != "":
		return PhotoRecord{URL: r.Legacy, Filename: filenameFromURL(r.Legacy)}
	default:
		return PhotoRecord{Filename: genericFilename}
	}
}

const genericFilename = "photo"

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|heic|heif|bmp|tiff?)$`)

// filenameFromURL recovers a display filename from the trailing path segment
// of a photo URL, when that segment carries a known image extension.
func filenameFromURL(rawURL string) string {
	s := rawURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	if s == "" || !imageExtPattern.MatchString(s) {
		return genericFilename
	}
	return s
}

func (r *RawPhotoRecord) UnmarshalJSON(data []byte) error {
	*r = RawPhotoRecord{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if json.Unmarshal(data, &s) == nil {
			r.Legacy = s
		}
		return nil
	}
	var rec PhotoRecord
	if json.Unmarshal(data, &rec) == nil {
		r.Current = &rec
	}
	return nil
}

// MarshalJSON always writes the current shape.
func (r RawPhotoRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Normalize())
}

func (r *RawPhotoRecord) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*r = RawPhotoRecord{}
	switch t {
	case bsontype.String:
		raw := bson.RawValue{Type: t, Value: data}
		if s, ok := raw.StringValueOK(); ok {
			r.Legacy = s
		}
	case bsontype.EmbeddedDocument:
		var rec PhotoRecord
		if bson.Unmarshal(data, &rec) == nil {
			r.Current = &rec
		}
	}
	return nil
}

// MarshalBSONValue always writes the current shape, so legacy entries are
// upgraded whenever their document is rewritten.
func (r RawPhotoRecord) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.Normalize())
}
