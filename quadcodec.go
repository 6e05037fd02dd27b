package elemental

import (
	c "github.com/unkn0wn-root/elemental/codec"
)

// QuadCodec is the native codec for Elements: payloads are the packed
// 4-byte signed quad (earth, air, water, fire), decoded with Normalize and
// encoded with Elements.Pack.
//
// QuadCodec is lossy by construction: fields survive only at int8
// resolution and Encode clamps to [-127, 127]. Use it when payload size
// matters more than float precision; use codec.CBOR or codec.Msgpack to
// carry exact float64 fields.
type QuadCodec struct{}

var _ c.Codec[Elements] = QuadCodec{}

func (QuadCodec) Encode(e Elements) ([]byte, error) {
	return e.Pack()
}

func (QuadCodec) Decode(b []byte) (Elements, error) {
	return Normalize(b)
}
