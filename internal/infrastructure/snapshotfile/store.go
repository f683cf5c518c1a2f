package snapshotfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const writeChunk = 1 << 20

// Store persists crosswalk snapshots as CSV files. The file modification
// time is the snapshot's FetchedAt.
type Store struct {
	logger *logging.Logger
	now    func() time.Time

	// write is swapped in tests to interrupt a save part way through.
	write func(w io.Writer, p []byte) (int, error)
}

func NewStore(logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		logger: logger,
		now:    time.Now,
		write:  func(w io.Writer, p []byte) (int, error) { return w.Write(p) },
	}
}

// Load reads the snapshot at path. A missing file returns usecase.ErrNotFound.
// Anything unreadable as a valid table returns usecase.ErrCorruptData.
func (s *Store) Load(ctx context.Context, path string) (*crosswalk.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: crosswalk file %s", usecase.ErrNotFound, path)
	}
	if err != nil {
		return nil, crerr.Wrapf(err, "open crosswalk file %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, crerr.Wrapf(err, "stat crosswalk file %s", path)
	}

	records, layout, err := crosswalk.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", usecase.ErrCorruptData, path, err)
	}
	table, err := crosswalk.NewTable(records, crosswalk.Meta{
		FetchedAt:    info.ModTime().UTC(),
		Source:       path,
		ExtraColumns: layout.Extra(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", usecase.ErrCorruptData, path, err)
	}

	s.logger.DebugContext(ctx, "crosswalk file loaded", "path", path, "rows", table.Len(), "fetched_at", table.FetchedAt())
	return table, nil
}

// Save writes table to path atomically: the data goes to a temp file in the
// same directory, is synced, stamped with FetchedAt and renamed over path.
// On any failure, including cancellation, the previous file is untouched and
// no temp file remains.
func (s *Store) Save(ctx context.Context, path string, table *crosswalk.Table) (err error) {
	if table == nil || table.Len() == 0 {
		return fmt.Errorf("%w: refusing to write an empty crosswalk", usecase.ErrValidation)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := crosswalk.WriteCSV(buf, table); err != nil {
		return crerr.Wrap(err, "encode crosswalk")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return crerr.Wrapf(err, "create crosswalk dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return crerr.Wrapf(err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				s.logger.Warn("remove temp crosswalk file failed", "path", tmpName, "error", rmErr)
			}
		}
	}()

	data := buf.B
	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(writeChunk, len(data))
		written, err := s.write(tmp, data[:n])
		if err != nil {
			return crerr.Wrapf(err, "write %s", tmpName)
		}
		if written != n {
			return crerr.Wrapf(io.ErrShortWrite, "write %s", tmpName)
		}
		data = data[n:]
	}

	if err := tmp.Sync(); err != nil {
		return crerr.Wrapf(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return crerr.Wrapf(err, "close %s", tmpName)
	}

	stamp := table.FetchedAt()
	if stamp.IsZero() {
		stamp = s.now()
	}
	if err := os.Chtimes(tmpName, stamp, stamp); err != nil {
		return crerr.Wrapf(err, "stamp %s", tmpName)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return crerr.Wrapf(err, "rename %s", tmpName)
	}
	syncDir(dir)

	s.logger.InfoContext(ctx, "crosswalk file written", "path", path, "rows", table.Len(), "bytes", buf.Len())
	return nil
}

// Remove deletes the snapshot at path. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return crerr.Wrapf(err, "remove crosswalk file %s", path)
	}
	return nil
}

// syncDir flushes the rename. Not every platform supports syncing a
// directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
