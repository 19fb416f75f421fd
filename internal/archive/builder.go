package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/gustav87/flo/internal/blocking"
	"github.com/gustav87/flo/internal/errs"
)

const archiveName = "archive.gz"

// Build writes <dir>/archive.gz exclusively: a gzip stream whose plaintext
// is the 8-byte FileHeader followed by the raw bytes of chunk_0..
// chunk_{chunkCount-1} concatenated in order. It is a pure function of the
// promoted chunk set plus gameID, and may be retried on failure without
// invalidating the chunk log. The gzip encode runs on the blocking pool
// since it is CPU-bound.
func Build(dir string, gameID int32, chunkCount int64) error {
	path := filepath.Join(dir, archiveName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errs.Wrap(errs.Io, err)
	}

	err = blocking.Run(func() error {
		gw := gzip.NewWriter(f)
		header := FileHeader{GameID: gameID}.Encode()
		if _, err := gw.Write(header[:]); err != nil {
			return errs.Wrap(errs.Io, err)
		}
		for id := int64(0); id < chunkCount; id++ {
			data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("chunk_%d", id)))
			if err != nil {
				return errs.Wrap(errs.Io, err)
			}
			if _, err := gw.Write(data); err != nil {
				return errs.Wrap(errs.Io, err)
			}
		}
		if err := gw.Close(); err != nil {
			return errs.Wrap(errs.Io, err)
		}
		return nil
	})
	closeErr := f.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return errs.Wrap(errs.Io, closeErr)
	}
	return nil
}
