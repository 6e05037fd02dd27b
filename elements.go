package elemental

import (
	"errors"
	"fmt"
	"math"
)

const (
	// PackedSize is the fixed wire size of a packed elemental quad:
	// four signed bytes in order earth, air, water, fire.
	PackedSize = 4

	// Scale maps the int8 range onto normalized ratios. 127 is the
	// positive int8 maximum, so 127 -> 1.0 and -127 -> -1.0. The int8
	// minimum -128 lands slightly below -1.0; Normalize keeps it as is.
	Scale = 127.0
)

var (
	// ErrInvalidLength is returned when a packed quad is not exactly
	// PackedSize bytes.
	ErrInvalidLength = errors.New("elemental: invalid packed length")

	// ErrInvalidEncoding is returned when a value cannot be represented
	// as a signed byte (NaN or infinite inputs to Pack).
	ErrInvalidEncoding = errors.New("elemental: value not encodable as signed byte")
)

// Elements is a normalized elemental profile. Each field is the signed-byte
// wire value divided by Scale, nominally in [-1, 1] (see Normalize for the
// -128 exception).
type Elements struct {
	Earth float64
	Air   float64
	Water float64
	Fire  float64
}

// Normalize decodes a packed elemental quad. buf must be exactly PackedSize
// bytes in field order earth, air, water, fire, each byte a
// two's-complement signed 8-bit integer. Each field is divided by Scale.
//
// The conversion is pure and deterministic: the same input always yields
// bit-identical output, with no rounding beyond IEEE 754 double division.
// No clamping is applied. A wire byte of -128 decodes to -128/127, just
// outside [-1, 1]; that asymmetry belongs to the signed-byte encoding and
// is preserved.
func Normalize(buf []byte) (Elements, error) {
	if len(buf) != PackedSize {
		return Elements{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(buf), PackedSize)
	}
	return Elements{
		Earth: float64(int8(buf[0])) / Scale,
		Air:   float64(int8(buf[1])) / Scale,
		Water: float64(int8(buf[2])) / Scale,
		Fire:  float64(int8(buf[3])) / Scale,
	}, nil
}

// Pack is the inverse of Normalize: each field is multiplied by Scale,
// rounded to nearest, and clamped to [-127, 127] so that Pack/Normalize
// round-trips stay inside the nominal range (-128 is never produced).
// Values below int8 resolution are lost. Fields that are NaN or infinite
// return ErrInvalidEncoding.
func (e Elements) Pack() ([]byte, error) {
	buf := make([]byte, PackedSize)
	for i, v := range [PackedSize]float64{e.Earth, e.Air, e.Water, e.Fire} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: field %d is %v", ErrInvalidEncoding, i, v)
		}
		q := math.Round(v * Scale)
		if q > Scale {
			q = Scale
		}
		if q < -Scale {
			q = -Scale
		}
		buf[i] = byte(int8(q))
	}
	return buf, nil
}
