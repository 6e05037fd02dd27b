package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version    byte = 1
	kindSingle byte = 1
	kindParty  byte = 2

	maxEntityLen = 0xFFFF
)

var (
	ErrCorrupt = errors.New("elemental: corrupt cache record")
	magic4     = [...]byte{'E', 'L', 'E', 'M'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Single: magic(4) | ver(1) | kind(1=single) | rev(u64 be) | vlen(u32 be) | payload(vlen)
func EncodeSingle(rev uint64, payload []byte) []byte {
	b := make([]byte, 0, 4+1+1+8+4+len(payload))
	b = append(b, magic4[:]...)
	b = append(b, version, kindSingle)
	b = binary.BigEndian.AppendUint64(b, rev)
	b = binary.BigEndian.AppendUint32(b, uint32(len(payload)))
	b = append(b, payload...)
	return b
}

// DecodeSingle validates framing and returns the revision and payload.
// The payload slice aliases b (zero-copy). Records with trailing bytes are
// rejected as corrupt.
func DecodeSingle(b []byte) (rev uint64, payload []byte, err error) {
	const hdr = 4 + 1 + 1 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindSingle {
		return 0, nil, ErrCorrupt
	}

	off := 6

	rev = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact fit; trailing junk is corruption
		return 0, nil, ErrCorrupt
	}

	return rev, b[off : off+vlen], nil
}

// Party:
//
//	magic(4) | ver(1) | kind(2=party) | n(u32 be)
//	entityLen(u16 be) | entity(entityLen) | rev(u64 be) | vlen(u32 be) | payload(vlen) * n
type PartyMember struct {
	Entity  string
	Rev     uint64
	Payload []byte
}

func EncodeParty(members []PartyMember) []byte {
	total := 4 + 1 + 1 + 4
	for _, m := range members {
		total += 2 + len(m.Entity) + 8 + 4 + len(m.Payload)
	}

	b := make([]byte, 0, total)
	b = append(b, magic4[:]...)
	b = append(b, version, kindParty)
	b = binary.BigEndian.AppendUint32(b, uint32(len(members)))

	for _, m := range members {
		if l := len(m.Entity); l == 0 || l > maxEntityLen {
			panic(fmt.Sprintf("elemental: invalid entity key length %d in party", l))
		}
		b = binary.BigEndian.AppendUint16(b, uint16(len(m.Entity)))
		b = append(b, m.Entity...)
		b = binary.BigEndian.AppendUint64(b, m.Rev)
		b = binary.BigEndian.AppendUint32(b, uint32(len(m.Payload)))
		b = append(b, m.Payload...)
	}

	return b
}

func DecodeParty(b []byte) ([]PartyMember, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindParty {
		return nil, ErrCorrupt
	}

	off := 6

	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4

	// Each member needs at least elen(2) + entity(1) + rev(8) + vlen(4)
	// bytes; a count the buffer cannot possibly hold is corruption. This
	// also bounds the allocation below against hostile counts.
	const minMember = 2 + 1 + 8 + 4
	if n < 0 || n > (len(b)-off)/minMember {
		return nil, ErrCorrupt
	}

	members := make([]PartyMember, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return nil, ErrCorrupt
		}
		elen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if elen <= 0 || elen > len(b)-off {
			return nil, ErrCorrupt
		}

		entityBytes := b[off : off+elen]
		off += elen

		if off+8 > len(b) {
			return nil, ErrCorrupt
		}
		rev := binary.BigEndian.Uint64(b[off : off+8])
		off += 8

		if off+4 > len(b) {
			return nil, ErrCorrupt
		}
		vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if vlen < 0 || vlen > len(b)-off {
			return nil, ErrCorrupt
		}

		payload := b[off : off+vlen]
		off += vlen

		members = append(members, PartyMember{
			Entity:  string(entityBytes), // one expected alloc per member
			Rev:     rev,
			Payload: payload,
		})
	}

	if off != len(b) { // trailing junk is corruption
		return nil, ErrCorrupt
	}

	return members, nil
}
