package archive

import (
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/gustav87/flo/internal/blocking"
	"github.com/gustav87/flo/internal/errs"
	"github.com/gustav87/flo/internal/record"
)

// Reader holds an already-decompressed archive: the decoded FileHeader
// plus the remaining content bytes (the concatenated chunk data), ready
// for sequential record decode.
type Reader struct {
	header  FileHeader
	content []byte
	cur     *bytes.Reader
}

// Open reads path, gzip-decodes it, decodes the 8-byte FileHeader, and
// drains the remainder into memory as the archive's content. The gzip
// decode runs on the blocking pool since it is CPU-bound.
func Open(path string) (*Reader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Io, err)
	}

	var header FileHeader
	var content []byte
	err = blocking.Run(func() error {
		gr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return errs.Wrap(errs.Io, err)
		}
		defer gr.Close()

		headerBuf := make([]byte, HeaderSize)
		if _, err := io.ReadFull(gr, headerBuf); err != nil {
			return errs.New(errs.DecodeArchiveHeader, "archive truncated before header", err)
		}
		h, err := DecodeHeader(headerBuf)
		if err != nil {
			return err
		}
		header = h

		rest, err := io.ReadAll(gr)
		if err != nil {
			return errs.Wrap(errs.Io, err)
		}
		content = rest
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Reader{header: header, content: content, cur: bytes.NewReader(content)}, nil
}

// GameID returns the header's game id.
func (r *Reader) GameID() int32 { return r.header.GameID }

// Next advances the reader and returns the next record decoded from the
// content. It returns (Record{}, false, nil) once the content is exhausted.
func (r *Reader) Next() (record.Record, bool, error) {
	if r.cur.Len() == 0 {
		return record.Record{}, false, nil
	}
	rec, err := record.Decode(r.cur)
	if err != nil {
		return record.Record{}, false, err
	}
	return rec, true, nil
}

// Records drains the reader, returning every remaining record in order.
func (r *Reader) Records() ([]record.Record, error) {
	var out []record.Record
	for {
		rec, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}
