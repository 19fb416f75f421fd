package archive

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/gustav87/flo/internal/errs"
	"github.com/gustav87/flo/internal/record"
)

func writeChunk(t *testing.T, dir string, id int64, records []record.Record) {
	t.Helper()
	var buf []byte
	for _, r := range records {
		buf = record.Encode(r, buf)
	}
	path := filepath.Join(dir, "chunk_"+itoa(id))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}

func TestBuildAndOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	chunk0 := []record.Record{record.StopLag(1), record.TickChecksumRecord(2)}
	chunk1 := []record.Record{record.PlayerLeft(0, 1), record.GameEnd()}
	writeChunk(t, dir, 0, chunk0)
	writeChunk(t, dir, 1, chunk1)

	if err := Build(dir, 99, 2); err != nil {
		t.Fatalf("Build: %v", err)
	}

	r, err := Open(filepath.Join(dir, "archive.gz"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.GameID() != 99 {
		t.Fatalf("GameID() = %d, want 99", r.GameID())
	}
	got, err := r.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	want := append(append([]record.Record{}, chunk0...), chunk1...)
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildRefusesExistingArchive(t *testing.T) {
	dir := t.TempDir()
	writeChunk(t, dir, 0, []record.Record{record.GameEnd()})
	if err := Build(dir, 1, 1); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if err := Build(dir, 1, 1); err == nil {
		t.Fatalf("second Build: want error (archive.gz exists), got nil")
	}
}

func TestOpenRejectsTruncatedHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.gz")
	if err := os.WriteFile(path, []byte{0x1f, 0x8b}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatalf("Open of non-gzip file: want error, got nil")
	}
}

func TestOpenRejectsBadSignature(t *testing.T) {
	dir := t.TempDir()
	writeChunk(t, dir, 0, []record.Record{record.GameEnd()})
	if err := Build(dir, 1, 1); err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Flip the low bit of the signature's first byte inside the gzip
	// plaintext, re-compress, and check that Open rejects the archive.
	path := filepath.Join(dir, "archive.gz")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	plain, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("decompress archive: %v", err)
	}
	plain[0] ^= 0x01
	var tampered bytes.Buffer
	gw := gzip.NewWriter(&tampered)
	if _, err := gw.Write(plain); err != nil {
		t.Fatalf("recompress archive: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("recompress archive: %v", err)
	}
	if err := os.WriteFile(path, tampered.Bytes(), 0o644); err != nil {
		t.Fatalf("write tampered archive: %v", err)
	}
	if _, err := Open(path); !errs.HasKind(err, errs.DecodeArchiveHeader) {
		t.Fatalf("Open of tampered archive: want DecodeArchiveHeader, got %v", err)
	}

	// DecodeHeader rejects a tampered signature on its own as well.
	buf := FileHeader{GameID: 1}.Encode()
	buf[0] = 'Z'
	if _, err := DecodeHeader(buf[:]); !errs.HasKind(err, errs.DecodeArchiveHeader) {
		t.Fatalf("DecodeHeader: want DecodeArchiveHeader, got %v", err)
	}
}
