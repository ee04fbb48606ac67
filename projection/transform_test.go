package projection

import (
	"math"
	"testing"

	"go.uber.org/zap"
)

func TestGPSToPixelExactAtCalibrationPoints(t *testing.T) {
	for _, p := range calibrationPoints {
		px := GPSToPixel(p.Lat, p.Lon)
		if math.Abs(float64(px.X)-p.X) > 1 || math.Abs(float64(px.Y)-p.Y) > 1 {
			t.Errorf("calibration point (%v,%v): got (%d,%d), want (%v,%v)",
				p.Lat, p.Lon, px.X, px.Y, p.X, p.Y)
		}
		if !px.InBounds {
			t.Errorf("calibration point (%v,%v) should be in bounds", p.Lat, p.Lon)
		}
	}
}

func TestGPSToPixelInsideMap(t *testing.T) {
	// A point between the calibration landmarks.
	px := GPSToPixel(45.31, -72.22)
	if !px.InBounds {
		t.Errorf("expected in bounds, got %+v", px)
	}
	if px.X < 0 || px.X > MapWidth || px.Y < 0 || px.Y > MapHeight {
		t.Errorf("pixel (%d,%d) outside canvas", px.X, px.Y)
	}
}

func TestGPSToPixelFarCoordinateClamped(t *testing.T) {
	// Montreal is far off the trail map.
	px := GPSToPixel(45.5017, -73.5673)
	if px.InBounds {
		t.Errorf("expected out of bounds, got %+v", px)
	}
	if px.X < 0 || px.X > MapWidth || px.Y < 0 || px.Y > MapHeight {
		t.Errorf("clamped pixel (%d,%d) outside canvas", px.X, px.Y)
	}
}

func TestPixelClampingWithMargin(t *testing.T) {
	// Identity-like coefficients make raw pixel positions explicit.
	m := transformMatrix{A: 1, E: 1}

	px := m.pixel(-200, 900)
	if px.InBounds {
		t.Error("raw (-200,900) should be out of bounds")
	}
	if px.X != 0 || px.Y != 700 {
		t.Errorf("clamped to (%d,%d), want (0,700)", px.X, px.Y)
	}

	// Within the 50px tolerance margin counts as displayable.
	edge := m.pixel(-49, 749)
	if !edge.InBounds {
		t.Error("raw (-49,749) should be within the margin")
	}
	if edge.X != 0 || edge.Y != 700 {
		t.Errorf("clamped to (%d,%d), want (0,700)", edge.X, edge.Y)
	}

	out := m.pixel(-51, 0)
	if out.InBounds {
		t.Error("raw (-51,0) should be beyond the margin")
	}
}

func TestSolveTransformRoundTrip(t *testing.T) {
	m := solveTransform(calibrationPoints, zap.NewNop())
	for _, p := range calibrationPoints {
		x := m.A*p.Lat + m.B*p.Lon + m.C
		y := m.D*p.Lat + m.E*p.Lon + m.F
		if math.Abs(x-p.X) > 1e-6 || math.Abs(y-p.Y) > 1e-6 {
			t.Errorf("point (%v,%v): transform gives (%v,%v), want (%v,%v)",
				p.Lat, p.Lon, x, y, p.X, p.Y)
		}
	}
}

func TestSolveTransformDegenerate(t *testing.T) {
	collinear := [3]CalibrationPoint{
		{Lat: 45.0, Lon: -72.0, X: 0, Y: 0},
		{Lat: 45.1, Lon: -72.1, X: 400, Y: 350},
		{Lat: 45.2, Lon: -72.2, X: 800, Y: 700},
	}
	m := solveTransform(collinear, zap.NewNop())
	if m != (transformMatrix{}) {
		t.Fatalf("expected zero transform, got %+v", m)
	}
	px := m.pixel(45.31, -72.22)
	if px.X != 0 || px.Y != 0 {
		t.Errorf("degenerate transform should map to origin, got (%d,%d)", px.X, px.Y)
	}
}

func TestIsWithinMapArea(t *testing.T) {
	if !IsWithinMapArea(45.31, -72.22) {
		t.Error("point between calibration landmarks should be within the map area")
	}
	if IsWithinMapArea(46.0, -71.0) {
		t.Error("distant point should be outside the map area")
	}
}
