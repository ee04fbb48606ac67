package model

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func timestampFixture() *time.Time {
	ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return &ts
}

func TestNormalizeLegacyString(t *testing.T) {
	raw := RawPhotoRecord{Legacy: "https://cdn.example/uploads/IMG_1234.jpg?token=abc"}
	rec := raw.Normalize()
	if rec.URL != "https://cdn.example/uploads/IMG_1234.jpg?token=abc" {
		t.Errorf("url = %q", rec.URL)
	}
	if rec.Filename != "IMG_1234.jpg" {
		t.Errorf("filename = %q", rec.Filename)
	}
	if rec.Coordinates != nil || rec.Timestamp != nil || rec.Caption != "" {
		t.Errorf("expected empty optional fields, got %+v", rec)
	}
}

func TestNormalizeDecodesEscapedFilename(t *testing.T) {
	rec := RawPhotoRecord{Legacy: "https://cdn.example/photos/chemin%20du%20lac.JPG"}.Normalize()
	if rec.Filename != "chemin du lac.JPG" {
		t.Errorf("filename = %q", rec.Filename)
	}
}

func TestNormalizeFallbackFilename(t *testing.T) {
	tests := []string{
		"https://cdn.example/uploads/abcdef",
		"https://cdn.example/",
		"not a url",
		"",
	}
	for _, legacy := range tests {
		rec := RawPhotoRecord{Legacy: legacy}.Normalize()
		if rec.Filename != "photo" {
			t.Errorf("legacy %q: filename = %q, want %q", legacy, rec.Filename, "photo")
		}
	}
}

func TestNormalizeCurrentFillsFilename(t *testing.T) {
	raw := RawPhotoRecord{Current: &PhotoRecord{URL: "https://cdn.example/x/y/caps.PNG"}}
	rec := raw.Normalize()
	if rec.Filename != "caps.PNG" {
		t.Errorf("filename = %q", rec.Filename)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	ts := timestampFixture()
	inputs := []RawPhotoRecord{
		{Legacy: "https://cdn.example/a.jpg"},
		{Legacy: "no-extension"},
		{},
		{Current: &PhotoRecord{
			URL:         "https://cdn.example/b.png",
			Filename:    "b.png",
			Coordinates: &Coordinates{Latitude: 45.31, Longitude: -72.22},
			Timestamp:   ts,
			Caption:     "broken sign",
		}},
		{Current: &PhotoRecord{URL: "https://cdn.example/c%20d.jpeg"}},
	}
	for i, raw := range inputs {
		once := raw.Normalize()
		twice := CurrentPhoto(once).Normalize()
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("input %d: normalize not idempotent: %+v vs %+v", i, once, twice)
		}
	}
}

func TestRawPhotoRecordJSONBothShapes(t *testing.T) {
	var photos []RawPhotoRecord
	data := []byte(`["https://cdn.example/old.jpg", {"url":"https://cdn.example/new.jpg","filename":"new.jpg","caption":"ice"}, 42]`)
	if err := json.Unmarshal(data, &photos); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("len = %d", len(photos))
	}
	if photos[0].Normalize().Filename != "old.jpg" {
		t.Errorf("legacy entry: %+v", photos[0].Normalize())
	}
	if photos[1].Normalize().Caption != "ice" {
		t.Errorf("current entry: %+v", photos[1].Normalize())
	}
	// Unrecognized shape degrades to the safe default.
	if photos[2].Normalize().Filename != "photo" {
		t.Errorf("malformed entry: %+v", photos[2].Normalize())
	}

	// Marshalling always emits the current shape.
	out, err := json.Marshal(photos[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var rec PhotoRecord
	if err := json.Unmarshal(out, &rec); err != nil {
		t.Fatalf("remarshal: %v", err)
	}
	if rec.URL != "https://cdn.example/old.jpg" || rec.Filename != "old.jpg" {
		t.Errorf("marshalled legacy = %+v", rec)
	}
}

func TestRawPhotoRecordBSONBothShapes(t *testing.T) {
	doc := bson.D{{Key: "photos", Value: bson.A{
		"https://cdn.example/old.jpg",
		bson.D{{Key: "url", Value: "https://cdn.example/new.jpg"}, {Key: "filename", Value: "new.jpg"}},
		int64(7),
	}}}
	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out struct {
		Photos []RawPhotoRecord `bson:"photos"`
	}
	if err := bson.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Photos) != 3 {
		t.Fatalf("len = %d", len(out.Photos))
	}
	if got := out.Photos[0].Normalize(); got.URL != "https://cdn.example/old.jpg" || got.Filename != "old.jpg" {
		t.Errorf("legacy entry = %+v", got)
	}
	if got := out.Photos[1].Normalize(); got.Filename != "new.jpg" {
		t.Errorf("current entry = %+v", got)
	}
	if got := out.Photos[2].Normalize(); got.Filename != "photo" {
		t.Errorf("malformed entry = %+v", got)
	}
}

func TestCoordinatesValid(t *testing.T) {
	valid := []Coordinates{{0, 0}, {90, 180}, {-90, -180}, {45.31, -72.22}}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("%+v should be valid", c)
		}
	}
	invalid := []Coordinates{{90.1, 0}, {-91, 0}, {0, 180.5}, {0, -181}}
	for _, c := range invalid {
		if c.Valid() {
			t.Errorf("%+v should be invalid", c)
		}
	}
}
