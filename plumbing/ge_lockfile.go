package plumbing

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/fsys"
	"github.com/brickster241/dircache/utils/logging"
)

// IndexPersister commits an index to disk through an exclusive lock file.
// The lock file doubles as the staging copy that is renamed over the live
// index once it is complete and synced.
type IndexPersister struct {
	IndexPath string
	LockPath  string
	Logger    *zap.Logger

	held bool // lock file created by this persister and not yet renamed
}

// NewIndexPersister returns a persister for the index inside repoDir.
func NewIndexPersister(repoDir string, logger *zap.Logger) *IndexPersister {
	return &IndexPersister{
		IndexPath: filepath.Join(repoDir, constants.IndexFile),
		LockPath:  filepath.Join(repoDir, constants.LockFile),
		Logger:    logging.OrNop(logger),
	}
}

// Persist writes idx to the lock file and renames it over the live index.
// An existing lock file fails immediately with a lock conflict. On any
// other failure the live index is untouched and the lock file is left for
// the caller to Rollback.
func (p *IndexPersister) Persist(idx *Index) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}

	// Take the lock, then write the new index into it
	f, err := os.OpenFile(p.LockPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, constants.LockFilePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return newError(KindLockConflict, "persist index", p.LockPath,
				fmt.Errorf("another process holds the index lock; remove it if that process is gone"))
		}
		return newError(KindIO, "persist index", p.LockPath, err)
	}
	p.held = true

	if _, err := f.Write(data); err != nil {
		f.Close()
		return newError(KindIO, "persist index", p.LockPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return newError(KindIO, "persist index", p.LockPath, err)
	}
	if err := f.Close(); err != nil {
		return newError(KindIO, "persist index", p.LockPath, err)
	}
	// Rename over the live index
	if err := fsys.ReplaceFile(p.LockPath, p.IndexPath); err != nil {
		return newError(KindIO, "persist index", p.IndexPath, err)
	}
	p.held = false

	p.Logger.Debug("index committed",
		zap.String("index", p.IndexPath),
		zap.Int("entries", idx.Len()),
		zap.String("size", humanize.Bytes(uint64(len(data)))))
	return nil
}

// Rollback removes the lock file left behind by a failed Persist. A lock
// this persister did not create, as after a lock conflict, is left alone.
func (p *IndexPersister) Rollback() error {
	if !p.held {
		return nil
	}
	p.held = false
	if err := os.Remove(p.LockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return newError(KindIO, "rollback index", p.LockPath, err)
	}
	return nil
}
