package transport

import (
	"bytes"
	"encoding/gob"
)

// Codec is the Encode/Decode capability spec.md §6 requires for every
// user type carried through an Exchange or Aggregate channel: those
// channels may cross a Transport boundary, where only bytes travel.
// Pipeline and Broadcast-within-a-worker never need one, since their
// data never leaves process memory.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(frame []byte) (T, error)
}

// GobCodec is the default Codec, registered per concrete T via
// gob.Register when T is an interface or contains one. It favors
// correctness and low ceremony over wire size or cross-language
// compatibility, matching this runtime's stance that wire format is an
// external collaborator's concern (spec.md §6) — a production transport
// is free to supply its own Codec.
type GobCodec[T any] struct{}

func (GobCodec[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobCodec[T]) Decode(frame []byte) (T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(frame)).Decode(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
