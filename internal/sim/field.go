package sim

import (
	"math"

	"quidditch/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

// Field is the playable volume: an elliptical footprint and a vertical band.
type Field struct {
	LongAxis  float64 // z semi-axis
	ShortAxis float64 // x semi-axis
	Top       float64
	Bottom    float64
}

// NewField builds a Field from configuration.
func NewField(cfg config.FieldConfig) Field {
	return Field{
		LongAxis:  cfg.LongAxis,
		ShortAxis: cfg.ShortAxis,
		Top:       cfg.Top,
		Bottom:    cfg.Bottom,
	}
}

// OvalValue is (x/ShortAxis)^2 + (z/LongAxis)^2.
func (f Field) OvalValue(p mgl64.Vec3) float64 {
	x := p.X() / f.ShortAxis
	z := p.Z() / f.LongAxis
	return x*x + z*z
}

// InOval is a closed test: a point exactly on the ellipse is inside.
func (f Field) InOval(p mgl64.Vec3) bool {
	return f.OvalValue(p) <= 1
}

// InBand reports whether p.y lies in [Bottom, Top].
func (f Field) InBand(p mgl64.Vec3) bool {
	return p.Y() >= f.Bottom && p.Y() <= f.Top
}

// ClampHeight clamps y into the band.
func (f Field) ClampHeight(y float64) float64 {
	return clamp(y, f.Bottom, f.Top)
}

// Contains combines the band and footprint tests.
func (f Field) Contains(p mgl64.Vec3) bool {
	return f.InBand(p) && f.InOval(p)
}

// NearEdge reports whether either normalized axis exceeds fraction.
func (f Field) NearEdge(p mgl64.Vec3, fraction float64) bool {
	return math.Abs(p.X())/f.ShortAxis > fraction || math.Abs(p.Z())/f.LongAxis > fraction
}

// InCorner reports whether both normalized axes exceed fraction.
func (f Field) InCorner(p mgl64.Vec3, fraction float64) bool {
	return math.Abs(p.X())/f.ShortAxis > fraction && math.Abs(p.Z())/f.LongAxis > fraction
}

// crossesShortAxis reports whether the x term dominates the oval value at p,
// meaning the side walls rather than the ends were hit.
func (f Field) crossesShortAxis(p mgl64.Vec3) bool {
	x := p.X() / f.ShortAxis
	z := p.Z() / f.LongAxis
	return x*x >= z*z
}

// Normal returns the outward horizontal unit normal of the ellipse level set through p.
func (f Field) Normal(p mgl64.Vec3) mgl64.Vec3 {
	n := mgl64.Vec3{p.X() / (f.ShortAxis * f.ShortAxis), 0, p.Z() / (f.LongAxis * f.LongAxis)}
	l := n.Len()
	if l < minDirection {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / l)
}
