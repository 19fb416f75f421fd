package chunklog

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gustav87/flo/internal/errs"
	"github.com/gustav87/flo/internal/record"
)

// Reader produces the records of an already-written game directory by
// reading chunk_0..chunk_{n-1} in order. It is read-only and may run
// concurrently with a Writer on the same game (it only observes already
// -promoted chunks) and with other Readers.
type Reader struct {
	dir     string
	nextID  int64 // one past the highest chunk found, i.e. the exclusive upper bound
	current int64
	records []record.Record
	pos     int
	done    bool
}

// Open enumerates dir for chunk_<n> entries, ignoring _chunk and any
// non-matching name, and positions the reader at chunk_0.
func Open(dir string) (*Reader, error) {
	maxID, found, err := scanMaxChunkID(dir)
	if err != nil {
		return nil, err
	}
	nextID := int64(0)
	if found {
		nextID = maxID + 1
	}
	return &Reader{dir: dir, nextID: nextID}, nil
}

// scanMaxChunkID lists dir and returns the highest n for which chunk_<n>
// exists, ignoring _chunk and any non-matching entry.
func scanMaxChunkID(dir string) (maxID int64, found bool, err error) {
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return 0, false, nil
		}
		return 0, false, errs.Wrap(errs.Io, readErr)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == scratchName {
			continue
		}
		n, ok := parseChunkName(name)
		if !ok {
			continue
		}
		if !found || n > maxID {
			maxID = n
			found = true
		}
	}
	return maxID, found, nil
}

func parseChunkName(name string) (int64, bool) {
	const prefix = "chunk_"
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(name, prefix), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Next advances the reader and returns the next record in the log, in
// write order. It returns (Record{}, false, nil) once the sequence is
// exhausted. The sequence is lazy, finite, and non-restartable: each
// chunk file is read fully into memory only as the reader reaches it.
func (r *Reader) Next() (record.Record, bool, error) {
	for {
		if r.pos < len(r.records) {
			rec := r.records[r.pos]
			r.pos++
			return rec, true, nil
		}
		if r.done {
			return record.Record{}, false, nil
		}
		if r.current >= r.nextID {
			r.done = true
			return record.Record{}, false, nil
		}
		if err := r.loadChunk(r.current); err != nil {
			return record.Record{}, false, err
		}
		r.current++
	}
}

func (r *Reader) loadChunk(id int64) error {
	data, err := os.ReadFile(filepath.Join(r.dir, chunkName(id)))
	if err != nil {
		return errs.Wrap(errs.Io, err)
	}
	cur := bytes.NewReader(data)
	r.records = r.records[:0]
	r.pos = 0
	for cur.Len() > 0 {
		rec, err := record.Decode(cur)
		if err != nil {
			return err
		}
		r.records = append(r.records, rec)
	}
	return nil
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
