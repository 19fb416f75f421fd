// Package archive implements the archive header codec (spec.md §4.B) and
// the archive builder/reader (§4.D, §4.F). The 8-byte FileHeader format
// mirrors the teacher's format.Header convention (a fixed-size,
// signature-prefixed struct with Encode/Decode pairs and a dedicated
// decode error), sized and fielded to this format instead.
package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/gustav87/flo/internal/errs"
)

// HeaderSize is the on-disk size of FileHeader: 4-byte signature + 4-byte game id.
const HeaderSize = 8

// signature is "flo\x01".
var signature = [4]byte{0x66, 0x6c, 0x6f, 0x01}

// FileHeader is the 8-byte archive header: a fixed signature followed by
// the little-endian game id.
type FileHeader struct {
	GameID int32
}

// Encode returns the 8-byte on-disk encoding of h.
func (h FileHeader) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	copy(buf[0:4], signature[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.GameID)) //nolint:gosec // G115: round-trips through DecodeHeader
	return buf
}

// DecodeHeader reads an 8-byte FileHeader from buf. It fails with
// errs.DecodeArchiveHeader if buf is short or the signature doesn't match.
func DecodeHeader(buf []byte) (FileHeader, error) {
	if len(buf) < HeaderSize {
		return FileHeader{}, errs.New(errs.DecodeArchiveHeader,
			fmt.Sprintf("header too short: got %d bytes, need %d", len(buf), HeaderSize), nil)
	}
	if buf[0] != signature[0] || buf[1] != signature[1] || buf[2] != signature[2] || buf[3] != signature[3] {
		return FileHeader{}, errs.New(errs.DecodeArchiveHeader,
			fmt.Sprintf("signature mismatch: got % x", buf[0:4]), nil)
	}
	return FileHeader{GameID: int32(binary.LittleEndian.Uint32(buf[4:8]))}, nil //nolint:gosec // G115: encoded by Encode from an int32
}
