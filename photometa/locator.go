package photometa

import (
	"context"
	"time"
)

// Position is a one-shot device fix.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64 // meters, 0 when unknown
}

// PositionOptions mirror the options of the platform geolocation call the
// web client makes.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration // a cached fix no older than this is acceptable
}

// Locator resolves the submitting device's current position. It is the
// fallback source when an upload carries no embedded GPS; implementations
// must respect ctx cancellation.
type Locator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

const (
	locateTimeout = 10 * time.Second
	locateMaxAge  = 60 * time.Second
)

// StaticLocator replays a fix the submitting client already obtained and
// sent along with the upload.
type StaticLocator struct {
	Pos Position
}

func (l StaticLocator) CurrentPosition(ctx context.Context, _ PositionOptions) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return l.Pos, nil
}
