package archive

import (
	"testing"

	"github.com/gustav87/flo/internal/errs"
)

func TestHeaderRoundTrip(t *testing.T) {
	for _, gameID := range []int32{0, 1, -1, 2147483647, -2147483648} {
		want := FileHeader{GameID: gameID}
		buf := want.Encode()
		got, err := DecodeHeader(buf[:])
		if err != nil {
			t.Fatalf("DecodeHeader(%d): %v", gameID, err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestDecodeHeaderTooShort(t *testing.T) {
	_, err := DecodeHeader([]byte{0x66, 0x6c, 0x6f})
	if !errs.HasKind(err, errs.DecodeArchiveHeader) {
		t.Fatalf("want DecodeArchiveHeader, got %v", err)
	}
}

func TestDecodeHeaderSignatureMismatch(t *testing.T) {
	buf := FileHeader{GameID: 5}.Encode()
	buf[0] = 'x'
	_, err := DecodeHeader(buf[:])
	if !errs.HasKind(err, errs.DecodeArchiveHeader) {
		t.Fatalf("want DecodeArchiveHeader, got %v", err)
	}
}
