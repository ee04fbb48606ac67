package projection

// Map canvas dimensions in pixels.
const (
	MapWidth  = 800
	MapHeight = 700
)

// boundsMargin is the tolerance beyond the canvas edges within which a
// position still counts as displayable. Photos taken at a trailhead just
// off the mapped area should not trigger the out-of-bounds warning.
const boundsMargin = 50

// detEpsilon guards the Cramer solve against collinear calibration points.
const detEpsilon = 1e-10

// CalibrationPoint ties a surveyed GPS position to its pixel on the map
// image. The image is rotated relative to true north, so three
// correspondences are needed to fit the affine transform.
type CalibrationPoint struct {
	Lat, Lon float64
	X, Y     float64
}

// Surveyed correspondences for the trail map asset.
var calibrationPoints = [3]CalibrationPoint{
	{Lat: 45.325861, Lon: -72.249972, X: 800, Y: 0}, // top right
	{Lat: 45.299444, Lon: -72.205667, X: 0, Y: 700}, // bottom left
	{Lat: 45.296611, Lon: -72.243361, X: 0, Y: 0},   // top left
}
