package plumbing

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/brickster241/dircache/utils/logging"
	"github.com/brickster241/dircache/utils/types"
)

// Stager records working tree files as blob objects and keeps the index in
// step with them. It mutates Index in memory only; persisting is up to the
// caller.
type Stager struct {
	Index  *Index
	Store  ObjectStore
	Tree   WorkingTree
	Logger *zap.Logger
}

// Stage brings the index entry for path up to date with the working tree.
// A path that no longer exists is removed from the index. Otherwise the
// file is stored as a blob and its entry inserted or replaced.
func (s *Stager) Stage(path string) error {
	logger := logging.OrNop(s.Logger)

	// Refuse unsafe names before touching the file system
	if err := VerifyPath(path); err != nil {
		return err
	}

	// A missing file means the path is dropped from the index
	h, err := s.Tree.OpenForRead(path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if s.Index.Remove(path) {
				logger.Debug("removed from index", zap.String("path", path))
			}
			return nil
		}
		if KindOf(err) == 0 {
			err = newError(KindIO, "open", path, err)
		}
		return err
	}

	sha, compressed, md, err := s.encode(path, h)
	if err != nil {
		return err
	}

	// Store the blob, then point the entry at it
	if err := s.Store.Write(sha, compressed); err != nil {
		return asStoreError(err, sha)
	}

	s.Index.InsertOrReplace(types.IndexEntry{
		Ctime:    md.Ctime,
		CtimeNs:  md.CtimeNs,
		Mtime:    md.Mtime,
		MtimeNs:  md.MtimeNs,
		Dev:      md.Dev,
		Ino:      md.Ino,
		Mode:     md.Mode,
		Uid:      md.Uid,
		Gid:      md.Gid,
		FileSize: md.FileSize,
		SHA1:     sha,
		Filename: path,
	})
	logger.Debug("staged", zap.String("path", path), zap.String("blob", hex.EncodeToString(sha[:])))
	return nil
}

// encode stats the open file and compresses its blob encoding. The handle is
// released before returning so the mapping does not outlive the payload.
func (s *Stager) encode(path string, h Handle) ([20]byte, []byte, types.Metadata, error) {
	defer h.Close()

	md, err := s.Tree.Stat(path)
	if err != nil {
		// Includes a file that vanished between open and stat
		if KindOf(err) != KindIO {
			err = newError(KindIO, "stat", path, err)
		}
		return [20]byte{}, nil, types.Metadata{}, err
	}

	sha, compressed, err := EncodeObject(types.BlobObject, h.Bytes())
	if err != nil {
		return [20]byte{}, nil, types.Metadata{}, err
	}
	return sha, compressed, md, nil
}
