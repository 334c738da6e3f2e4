package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// containerMagic opens every compressed diagram file. The trailing byte is
// the container version.
var containerMagic = []byte{'O', 'P', 'M', 'D', 1}

// ErrBadContainer is returned for data that is not a compressed diagram
// container.
var ErrBadContainer = errors.New("codec: not a diagram container")

// Seal wraps an exchange document in the compressed on-disk container:
// magic header followed by one snappy block.
func Seal(document []byte) []byte {
	compressed := snappy.Encode(nil, document)
	out := make([]byte, 0, len(containerMagic)+len(compressed))
	out = append(out, containerMagic...)
	return append(out, compressed...)
}

// Unseal strips the container and returns the exchange document.
func Unseal(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, containerMagic) {
		return nil, ErrBadContainer
	}
	document, err := snappy.Decode(nil, data[len(containerMagic):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadContainer, err)
	}
	return document, nil
}
