// Package geom holds the fixed-point transform types shared by the
// timeline and the movie source.
package geom

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Fixed16 is a signed 16.16 fixed-point number stored as its raw
// epsilons (1/65536 units). Values are copied by bit pattern, never
// recomputed.
type Fixed16 int32

// One is 1.0 in 16.16.
const One Fixed16 = 1 << 16

// FromEpsilons wraps a raw 16.16 bit pattern.
func FromEpsilons(e int32) Fixed16 {
	return Fixed16(e)
}

// FromFloat rounds f to the nearest representable 16.16 value,
// saturating at the int32 range.
func FromFloat(f float64) Fixed16 {
	e := math.Round(f * float64(One))
	if e > math.MaxInt32 {
		return Fixed16(math.MaxInt32)
	}
	if e < math.MinInt32 {
		return Fixed16(math.MinInt32)
	}
	return Fixed16(int32(e))
}

// Epsilons returns the raw bit pattern.
func (x Fixed16) Epsilons() int32 {
	return int32(x)
}

// Float64 is exact: every 16.16 value fits in a float64 mantissa.
func (x Fixed16) Float64() float64 {
	return float64(x) / float64(One)
}

func (x Fixed16) String() string {
	return fmt.Sprintf("%g", x.Float64())
}

// MarshalYAML writes the value as a plain float.
func (x Fixed16) MarshalYAML() (interface{}, error) {
	return x.Float64(), nil
}

// UnmarshalYAML accepts a float and rounds it to 16.16.
func (x *Fixed16) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err != nil {
		return fmt.Errorf("fixed16: %w", err)
	}
	*x = FromFloat(f)
	return nil
}

// Matrix is an affine 2D transform: 16.16 scale and skew components and
// integer translation in twips.
type Matrix struct {
	ScaleX      Fixed16 `yaml:"scale_x"`
	ScaleY      Fixed16 `yaml:"scale_y"`
	RotateSkew0 Fixed16 `yaml:"rotate_skew0"`
	RotateSkew1 Fixed16 `yaml:"rotate_skew1"`
	TranslateX  int32   `yaml:"translate_x"`
	TranslateY  int32   `yaml:"translate_y"`
}

// Identity returns the default transform.
func Identity() Matrix {
	return Matrix{ScaleX: One, ScaleY: One}
}

// IsIdentity reports whether m equals Identity bit for bit.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// Apply transforms a point given in twips.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	tx := m.ScaleX.Float64()*x + m.RotateSkew1.Float64()*y + float64(m.TranslateX)
	ty := m.RotateSkew0.Float64()*x + m.ScaleY.Float64()*y + float64(m.TranslateY)
	return tx, ty
}

func (m Matrix) String() string {
	return fmt.Sprintf("[%v %v %v %v %d %d]",
		m.ScaleX, m.RotateSkew0, m.RotateSkew1, m.ScaleY, m.TranslateX, m.TranslateY)
}
