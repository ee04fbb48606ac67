package projection

import (
	"math"
	"sync"

	"go.uber.org/zap"
)

// transformMatrix holds the affine coefficients:
//
//	x = A·lat + B·lon + C
//	y = D·lat + E·lon + F
type transformMatrix struct {
	A, B, C float64
	D, E, F float64
}

var (
	matrixOnce sync.Once
	matrix     transformMatrix
)

// Pixel is a marker position on the map image. InBounds reports whether the
// raw position fell on the canvas or within the tolerance margin around it;
// X and Y are always clamped onto the canvas so callers can render
// something either way.
type Pixel struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	InBounds bool `json:"isInBounds"`
}

// GPSToPixel converts a decimal-degree coordinate to a marker pixel on the
// map image. The transform is solved once from the calibration points and
// reused for every conversion.
func GPSToPixel(lat, lon float64) Pixel {
	matrixOnce.Do(func() {
		matrix = solveTransform(calibrationPoints, zap.L())
	})
	return matrix.pixel(lat, lon)
}

// IsWithinMapArea reports whether the coordinate maps near enough to the
// canvas to display without a warning.
func IsWithinMapArea(lat, lon float64) bool {
	return GPSToPixel(lat, lon).InBounds
}

func (m transformMatrix) pixel(lat, lon float64) Pixel {
	x := math.Round(m.A*lat + m.B*lon + m.C)
	y := math.Round(m.D*lat + m.E*lon + m.F)
	inBounds := x >= -boundsMargin && x <= MapWidth+boundsMargin &&
		y >= -boundsMargin && y <= MapHeight+boundsMargin
	return Pixel{
		X:        int(clamp(x, 0, MapWidth)),
		Y:        int(clamp(y, 0, MapHeight)),
		InBounds: inBounds,
	}
}

// solveTransform fits the two 3x3 linear systems (one for x, one for y) by
// Cramer's rule. A near-zero determinant means the calibration points are
// collinear in lat/lon space; the transform then degrades to all zeros so
// the configuration defect shows up as every marker rendering at the origin
// instead of a crash.
func solveTransform(pts [3]CalibrationPoint, log *zap.Logger) transformMatrix {
	det := det3(
		pts[0].Lat, pts[0].Lon, 1,
		pts[1].Lat, pts[1].Lon, 1,
		pts[2].Lat, pts[2].Lon, 1,
	)
	if math.Abs(det) < detEpsilon {
		log.Error("degenerate map calibration: points are collinear",
			zap.Float64("determinant", det))
		return transformMatrix{}
	}
	return transformMatrix{
		A: det3(pts[0].X, pts[0].Lon, 1, pts[1].X, pts[1].Lon, 1, pts[2].X, pts[2].Lon, 1) / det,
		B: det3(pts[0].Lat, pts[0].X, 1, pts[1].Lat, pts[1].X, 1, pts[2].Lat, pts[2].X, 1) / det,
		C: det3(pts[0].Lat, pts[0].Lon, pts[0].X, pts[1].Lat, pts[1].Lon, pts[1].X, pts[2].Lat, pts[2].Lon, pts[2].X) / det,
		D: det3(pts[0].Y, pts[0].Lon, 1, pts[1].Y, pts[1].Lon, 1, pts[2].Y, pts[2].Lon, 1) / det,
		E: det3(pts[0].Lat, pts[0].Y, 1, pts[1].Lat, pts[1].Y, 1, pts[2].Lat, pts[2].Y, 1) / det,
		F: det3(pts[0].Lat, pts[0].Lon, pts[0].Y, pts[1].Lat, pts[1].Lon, pts[1].Y, pts[2].Lat, pts[2].Lon, pts[2].Y) / det,
	}
}

func det3(a, b, c, d, e, f, g, h, i float64) float64 {
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
