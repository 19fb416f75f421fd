// Package chunklog implements the chunk log writer and reader (spec.md
// §4.C, §4.E): an append-only, chunked record log with atomic promotion
// by same-directory rename, grounded on the teacher's chunk/file.Manager
// write path (flush-then-fsync-then-rename) but simplified to the
// spec's single in-memory buffer and rename-based promotion instead of
// the teacher's multi-file (raw/idx/attr/dict) layout.
package chunklog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gustav87/flo/internal/archive"
	"github.com/gustav87/flo/internal/dataroot"
	"github.com/gustav87/flo/internal/errs"
	"github.com/gustav87/flo/internal/logging"
	"github.com/gustav87/flo/internal/record"
)

const scratchName = "_chunk"

// Destination reports where a write landed: the chunk already open at call
// time, or a fresh chunk created by a promotion the write triggered.
type Destination int

const (
	// CurrentChunk means the write was appended to the already-open chunk.
	CurrentChunk Destination = iota
	// NewChunk means the write triggered a promotion before being appended.
	NewChunk
)

func (d Destination) String() string {
	if d == NewChunk {
		return "NewChunk"
	}
	return "CurrentChunk"
}

// Writer is a single-writer, append-only chunk log for one game. It owns
// the game directory's scratch file (_chunk) and the next chunk_id to
// assign on promotion. Concurrent writers on the same game are undefined
// behavior (spec.md §5); callers are responsible for single-writer-per-game.
type Writer struct {
	gameID  int32
	dir     string
	chunkID int64
	buf     []byte
	scratch *os.File
	logger  *slog.Logger
	done    bool
}

// Create opens a fresh Writer for gameID: the game directory is created if
// absent, and a truncated, empty scratch file is opened.
func Create(root *dataroot.Root, gameID int32, logger *slog.Logger) (*Writer, error) {
	dir, err := root.GamePath(gameID)
	if err != nil {
		return nil, errs.Wrap(errs.Io, err)
	}
	w := &Writer{
		gameID: gameID,
		dir:    dir,
		logger: logging.Default(logger).With("component", "chunklog.writer", "game_id", gameID),
	}
	if err := w.resetScratch(); err != nil {
		return nil, err
	}
	w.logger.Info("writer created", "dir", dir)
	return w, nil
}

// Recover reopens an existing game directory: the directory is scanned
// (via the reader's directory-listing logic) to learn the next chunk_id to
// assign, then the scratch file is truncate-created, discarding any
// pre-existing _chunk content (spec.md I4 — recovery never reads stale
// scratch bytes).
func Recover(root *dataroot.Root, gameID int32, logger *slog.Logger) (*Writer, error) {
	dir, err := root.GamePath(gameID)
	if err != nil {
		return nil, errs.Wrap(errs.Io, err)
	}
	maxID, found, err := scanMaxChunkID(dir)
	if err != nil {
		return nil, err
	}
	next := int64(0)
	if found {
		next = maxID + 1
	}
	w := &Writer{
		gameID:  gameID,
		dir:     dir,
		chunkID: next,
		logger:  logging.Default(logger).With("component", "chunklog.writer", "game_id", gameID),
	}
	if err := w.resetScratch(); err != nil {
		return nil, err
	}
	w.logger.Info("writer recovered", "dir", dir, "next_chunk_id", next)
	return w, nil
}

func (w *Writer) resetScratch() error {
	if w.scratch != nil {
		_ = w.scratch.Close()
	}
	f, err := os.OpenFile(filepath.Join(w.dir, scratchName), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errs.Wrap(errs.Io, err)
	}
	w.scratch = f
	w.buf = w.buf[:0]
	return nil
}

// WriteRecord encodes r and appends it, promoting the current chunk first
// if it would overflow MaxRecordSize.
func (w *Writer) WriteRecord(r record.Record) (Destination, error) {
	if err := record.Validate(r); err != nil {
		return CurrentChunk, err
	}
	size := record.EncodedSize(r)
	dest, err := w.makeRoom(size)
	if err != nil {
		return dest, err
	}
	w.buf = record.Encode(r, w.buf)
	return dest, nil
}

// WriteBytes is a raw-splice escape hatch: the caller guarantees b is a
// whole number of encoded records.
func (w *Writer) WriteBytes(b []byte) (Destination, error) {
	if len(b) > record.MaxRecordSize {
		return CurrentChunk, errs.New(errs.RecordTooLarge,
			fmt.Sprintf("byte slice is %d bytes, max is %d", len(b), record.MaxRecordSize), nil)
	}
	dest, err := w.makeRoom(len(b))
	if err != nil {
		return dest, err
	}
	w.buf = append(w.buf, b...)
	return dest, nil
}

func (w *Writer) makeRoom(size int) (Destination, error) {
	if w.done {
		return CurrentChunk, errs.New(errs.Io, "writer already finalized", nil)
	}
	if len(w.buf)+size > record.MaxRecordSize {
		if err := w.promote(); err != nil {
			return CurrentChunk, err
		}
		return NewChunk, nil
	}
	return CurrentChunk, nil
}

// SyncAll promotes the current buffer if non-empty; it is a no-op otherwise.
func (w *Writer) SyncAll() error {
	if len(w.buf) == 0 {
		return nil
	}
	return w.promote()
}

// promote implements the five-step atomic promotion algorithm (spec.md §4.C):
// flush B to _chunk, fsync, rename to chunk_<n>, bump chunk_id, truncate-create
// a fresh _chunk. A crash before the rename loses only the unpromoted bytes
// (I4); a crash during the rename leaves exactly one of the two names
// present (I1); a crash after is recovered by the next resetScratch.
func (w *Writer) promote() error {
	if _, err := w.scratch.Write(w.buf); err != nil {
		return errs.Wrap(errs.Io, err)
	}
	w.buf = w.buf[:0]

	if err := w.scratch.Sync(); err != nil {
		return errs.Wrap(errs.Io, err)
	}
	if err := w.scratch.Close(); err != nil {
		return errs.Wrap(errs.Io, err)
	}

	chunkPath := filepath.Join(w.dir, chunkName(w.chunkID))
	if err := os.Rename(filepath.Join(w.dir, scratchName), chunkPath); err != nil {
		return errs.Wrap(errs.Io, err)
	}
	w.logger.Debug("promoted chunk", "chunk_id", w.chunkID)
	w.chunkID++

	return w.resetScratch()
}

// BuildArchive promotes any remaining buffered bytes, then writes
// <dir>/archive.gz from the promoted chunk set. The writer is single-use
// after this call; subsequent writes are rejected.
func (w *Writer) BuildArchive() error {
	if err := w.SyncAll(); err != nil {
		return err
	}
	w.done = true
	return archive.Build(w.dir, w.gameID, w.chunkID)
}

// Close releases the writer's open scratch handle without promoting
// buffered bytes. Safe to call after BuildArchive or mid-operation;
// any unpromoted bytes are discarded per I4.
func (w *Writer) Close() error {
	if w.scratch == nil {
		return nil
	}
	err := w.scratch.Close()
	w.scratch = nil
	if err != nil {
		return errs.Wrap(errs.Io, err)
	}
	return nil
}

func chunkName(id int64) string {
	return fmt.Sprintf("chunk_%d", id)
}
