package protocol

import (
	"encoding/binary"
	"fmt"
)

// Header layout: sequence (8 bytes) | pair index (4 bytes). Headers larger
// than MinHeaderSize are zero padded, smaller ones are truncated.
const (
	MinHeaderSize = 12
	seqOffset     = 0
	indexOffset   = 8
)

// Pair is one header and payload. Both are read-only while a send is in
// progress.
type Pair struct {
	Header  []byte
	Payload []byte
}

// Len returns the number of bytes the pair puts on the wire.
func (p Pair) Len() int {
	return len(p.Header) + len(p.Payload)
}

// Group is an ordered batch of pairs sent as one unit.
type Group struct {
	Seq   uint64
	Pairs []Pair
}

// NewGroup allocates a group of n pairs. Each header carries seq and the pair
// index; each payload is filled with the low byte of the pair index, so two
// groups with the same seq and shape are byte-identical.
func NewGroup(seq uint64, n, headerSize, payloadSize int) (*Group, error) {
	if n <= 0 || headerSize <= 0 || payloadSize <= 0 {
		return nil, fmt.Errorf("invalid group shape: pairs=%d header=%d payload=%d", n, headerSize, payloadSize)
	}

	g := &Group{Seq: seq, Pairs: make([]Pair, n)}
	for i := range g.Pairs {
		header := make([]byte, headerSize)
		encodeHeader(header, seq, uint32(i))

		payload := make([]byte, payloadSize)
		fill := byte(i)
		for j := range payload {
			payload[j] = fill
		}

		g.Pairs[i] = Pair{Header: header, Payload: payload}
	}
	return g, nil
}

func encodeHeader(b []byte, seq uint64, index uint32) {
	var full [MinHeaderSize]byte
	binary.BigEndian.PutUint64(full[seqOffset:], seq)
	binary.BigEndian.PutUint32(full[indexOffset:], index)
	copy(b, full[:])
}

// Len returns the number of bytes the group puts on the wire.
func (g *Group) Len() int {
	var n int
	for _, p := range g.Pairs {
		n += p.Len()
	}
	return n
}

// NumBuffers returns the number of discontiguous buffers, two per pair.
func (g *Group) NumBuffers() int {
	return 2 * len(g.Pairs)
}

// Buffers returns the buffers in wire order: h0, p0, h1, p1, ...
// The slices alias the group's memory.
func (g *Group) Buffers() [][]byte {
	bufs := make([][]byte, 0, g.NumBuffers())
	for _, p := range g.Pairs {
		bufs = append(bufs, p.Header, p.Payload)
	}
	return bufs
}

// Bytes returns a contiguous copy of the group in wire order.
func (g *Group) Bytes() []byte {
	out := make([]byte, 0, g.Len())
	for _, p := range g.Pairs {
		out = append(out, p.Header...)
		out = append(out, p.Payload...)
	}
	return out
}

// Release drops the group's buffers. The group must not be sent afterwards.
func (g *Group) Release() {
	for i := range g.Pairs {
		g.Pairs[i] = Pair{}
	}
	g.Pairs = nil
}
