package car

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/dagcbor"
	"github.com/forestrie/go-repocar/varint"
)

const Version = 1

type Header struct {
	Version uint64
	Roots   []cid.Cid
}

// DecodeHeader reads the length prefixed header from the front of br.
func DecodeHeader(br *bufio.Reader, maxSize uint64) (Header, error) {
	n, err := varint.DecodeFrom(br)
	if err != nil {
		return Header{}, fmt.Errorf("%w: length: %w", ErrInvalidHeader, err)
	}
	if n == 0 || n > maxSize {
		return Header{}, fmt.Errorf("%w: length %d", ErrInvalidHeader, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	return ParseHeader(buf)
}

// ParseHeader decodes the header map itself.
func ParseHeader(b []byte) (Header, error) {
	m, err := dagcbor.DecodeMap(b)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	version, ok := m.Int("version")
	if !ok {
		return Header{}, fmt.Errorf("%w: missing version", ErrInvalidHeader)
	}
	if version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	list, ok := m["roots"].(dagcbor.List)
	if !ok {
		return Header{}, fmt.Errorf("%w: roots is not a list", ErrInvalidHeader)
	}
	h := Header{Version: uint64(version), Roots: make([]cid.Cid, 0, len(list))}
	for i, e := range list {
		l, ok := e.(dagcbor.Link)
		if !ok {
			return Header{}, fmt.Errorf("%w: root %d is %s", ErrInvalidHeader, i, e.Kind())
		}
		h.Roots = append(h.Roots, l.CID)
	}
	return h, nil
}

// EncodeHeader returns the header map without its length prefix.
func EncodeHeader(h Header) ([]byte, error) {
	roots := make(dagcbor.List, len(h.Roots))
	for i, c := range h.Roots {
		roots[i] = dagcbor.NewLink(c)
	}
	version := h.Version
	if version == 0 {
		version = Version
	}
	return dagcbor.Encode(dagcbor.Map{
		"roots":   roots,
		"version": dagcbor.Int(version),
	})
}
