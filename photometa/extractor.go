package photometa

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"go.uber.org/zap"

	"trail-inspect/model"
)

func init() {
	// Register manufacturer-specific note parsers so vendor fields decode.
	exif.RegisterParsers(mknote.All...)
}

// Extractor resolves the best-available capture location and time for
// uploaded images. The Locator is optional; without one the extractor only
// reads embedded tags.
type Extractor struct {
	Locator Locator
	Log     *zap.Logger
}

func NewExtractor(loc Locator, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{Locator: loc, Log: log}
}

// Extract produces the metadata for one uploaded file. It never returns an
// error: a stripped or tagless image is the common case, and a missing
// location must not block an inspection submission. Every failure path
// degrades to nil fields instead.
//
// Non-image uploads yield the zero value.
func (e *Extractor) Extract(ctx context.Context, content []byte, filename, mimeType string) model.PhotoMetadata {
	if !strings.HasPrefix(mimeType, "image/") {
		e.Log.Warn("skipping metadata extraction for non-image upload",
			zap.String("filename", filename),
			zap.String("content_type", mimeType))
		return model.PhotoMetadata{}
	}

	meta := model.PhotoMetadata{Filename: filename}

	x, err := exif.Decode(bytes.NewReader(content))
	if err != nil {
		// No EXIF block at all. Screenshots and stripped uploads land here.
		e.fallbackLocate(ctx, &meta)
		return meta
	}

	if coords, ok := e.exifCoordinates(x, filename); ok {
		meta.Coordinates = coords
		meta.HasGPSData = true
		meta.GPSSource = model.SourceEXIF
	}
	if ts, ok := e.exifTimestamp(x, filename); ok {
		meta.Timestamp = &ts
	}
	if meta.Coordinates == nil {
		e.fallbackLocate(ctx, &meta)
	}
	return meta
}

// tagState distinguishes a tag that is absent from one that is present but
// unusable. Callers collapse both to "no value"; the distinction only feeds
// diagnostics.
type tagState int

const (
	tagFound tagState = iota
	tagNotFound
	tagInvalid
)

type tagResult struct {
	state tagState
	value float64
	err   error
}

func (e *Extractor) exifCoordinates(x *exif.Exif, filename string) (*model.Coordinates, bool) {
	lat := gpsAngle(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	lon := gpsAngle(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if lat.state == tagNotFound || lon.state == tagNotFound {
		return nil, false
	}
	if lat.state == tagInvalid || lon.state == tagInvalid {
		e.Log.Warn("discarding malformed GPS tags",
			zap.String("filename", filename),
			zap.NamedError("latitude", lat.err),
			zap.NamedError("longitude", lon.err))
		return nil, false
	}
	coords := model.Coordinates{Latitude: lat.value, Longitude: lon.value}
	if !coords.Valid() {
		e.Log.Warn("discarding out-of-range GPS coordinates",
			zap.String("filename", filename),
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude))
		return nil, false
	}
	return &coords, true
}

func gpsAngle(x *exif.Exif, angle, ref exif.FieldName) tagResult {
	tag, err := x.Get(angle)
	if err != nil {
		return tagResult{state: tagNotFound}
	}
	refVal := ""
	if refTag, err := x.Get(ref); err == nil {
		refVal, _ = refTag.StringVal()
	}
	var dms [3]Rational
	for i := range dms {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return tagResult{state: tagInvalid, err: err}
		}
		dms[i] = Rational{Num: num, Den: den}
	}
	dec, err := ConvertDMSToDecimal(dms[0], dms[1], dms[2], refVal)
	if err != nil {
		return tagResult{state: tagInvalid, err: err}
	}
	return tagResult{state: tagFound, value: dec}
}

// Capture-time fields in order of preference.
var dateFields = []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime}

// exifDateLayout is the fixed EXIF format: colon-separated date, one space,
// colon-separated time.
const exifDateLayout = "2006:01:02 15:04:05"

var exifDatePattern = regexp.MustCompile(`^\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}$`)

// exifTimestamp returns the capture time from the first present date field.
// A present-but-malformed field yields no timestamp rather than falling
// through to the next field.
func (e *Extractor) exifTimestamp(x *exif.Exif, filename string) (time.Time, bool) {
	for _, field := range dateFields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			return time.Time{}, false
		}
		t, err := parseExifDate(s)
		if err != nil {
			e.Log.Warn("malformed EXIF date",
				zap.String("filename", filename),
				zap.String("field", string(field)),
				zap.String("value", s))
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func parseExifDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if !exifDatePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("date %q does not match YYYY:MM:DD HH:MM:SS", s)
	}
	return time.ParseInLocation(exifDateLayout, s, time.Local)
}

// fallbackLocate asks the locator for a one-shot fix, bounded by the same
// timeout and cached-fix allowance the web client's geolocation call used.
// Any failure leaves the coordinates nil: this is an enhancement, not a
// required capability.
func (e *Extractor) fallbackLocate(ctx context.Context, meta *model.PhotoMetadata) {
	if e.Locator == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, locateTimeout)
	defer cancel()
	pos, err := e.Locator.CurrentPosition(ctx, PositionOptions{
		HighAccuracy: true,
		Timeout:      locateTimeout,
		MaximumAge:   locateMaxAge,
	})
	if err != nil {
		e.Log.Debug("fallback geolocation unavailable", zap.Error(err))
		return
	}
	coords := model.Coordinates{
		Latitude:  round6(pos.Latitude),
		Longitude: round6(pos.Longitude),
	}
	if !coords.Valid() {
		return
	}
	meta.Coordinates = &coords
	meta.HasGPSData = true
	meta.GPSSource = model.SourceBrowser
}
