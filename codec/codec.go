package codec

// Codec converts values V to and from the []byte payloads carried inside
// cache records. Implementations must be deterministic enough that a value
// written by one replica decodes on another.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
