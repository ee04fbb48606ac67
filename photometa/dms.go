package photometa

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Rational is a numerator/denominator pair, the representation EXIF uses for
// each component of a GPS angle.
type Rational struct {
	Num, Den int64
}

func (r Rational) Float() float64 {
	if r.Den == 0 {
		return math.NaN()
	}
	return float64(r.Num) / float64(r.Den)
}

// ConvertDMSToDecimal converts a degrees/minutes/seconds triple plus a
// hemisphere reference ("N", "S", "E", "W") to signed decimal degrees,
// rounded to six decimal places. South and West negate the result.
func ConvertDMSToDecimal(deg, min, sec Rational, ref string) (float64, error) {
	d, m, s := deg.Float(), min.Float(), sec.Float()
	if math.IsNaN(d) || math.IsNaN(m) || math.IsNaN(s) {
		return 0, errors.New("zero denominator in DMS rational")
	}
	dec := d + m/60 + s/3600
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		dec = -dec
	case "N", "E", "":
	default:
		return 0, fmt.Errorf("unknown hemisphere reference %q", ref)
	}
	return round6(dec), nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
