// internal/content/store.go
package content

import (
	"os"
	"path/filepath"
	"time"

	"grit/internal/errors"
	"grit/internal/storage"
	"grit/shared/utils"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// BlobMeta records bookkeeping for a stored blob. The blob bytes
// themselves live as a flat file under the blobs directory, named by
// their 40-character hex hash.
type BlobMeta struct {
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	RefCount   uint32    `json:"ref_count"`
	CreatedAt  time.Time `json:"created_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// Store is the content-addressed blob store. It is write-once and
// append-only: blobs are never updated or deleted.
type Store struct {
	root  string
	meta  *storage.BadgerStore
	cache *lru.Cache[string, []byte]
}

// Options configures Store behavior.
type Options struct {
	Root      string // Directory holding blob files
	CacheSize int    // Number of blobs to cache in memory
}

func New(db *badger.DB, opts Options) (*Store, error) {
	if opts.Root == "" {
		return nil, errors.IOFailure("creating blob store", "", os.ErrInvalid)
	}
	if err := os.MkdirAll(opts.Root, 0755); err != nil {
		return nil, errors.IOFailure("creating blob directory", opts.Root, err)
	}

	if opts.CacheSize == 0 {
		opts.CacheSize = 1000
	}
	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Store{
		root:  opts.Root,
		meta:  storage.NewBadgerStore(db, "blob"),
		cache: cache,
	}, nil
}

// Store saves content and returns its hash. Storing identical content
// twice writes the object at most once; the second call only bumps the
// reference count.
func (s *Store) Store(content []byte) (string, error) {
	if content == nil {
		content = []byte{} // Empty files are valid blobs
	}

	hash := utils.HashContent(content)

	exists, err := s.Exists(hash)
	if err != nil {
		return "", err
	}
	if exists {
		if err := s.incrementRefCount(hash); err != nil {
			return "", err
		}
		return hash, nil
	}

	path := s.blobPath(hash)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", errors.IOFailure("writing blob", path, err)
	}

	now := time.Now()
	meta := BlobMeta{
		Hash:       hash,
		Size:       int64(len(content)),
		RefCount:   1,
		CreatedAt:  now,
		AccessedAt: now,
	}
	if err := s.meta.Put(hash, &meta); err != nil {
		// The blob file is harmless without metadata, but remove it so
		// a retried Store starts from a clean slate.
		os.Remove(path)
		return "", err
	}

	s.cache.Add(hash, content)

	return hash, nil
}

// Get retrieves blob bytes by hash. A missing object for a hash that is
// referenced by the index or a commit snapshot means on-disk corruption.
func (s *Store) Get(hash string) ([]byte, error) {
	if !utils.IsValidHash(hash) {
		return nil, errors.ObjectNotFound(hash)
	}

	if content, ok := s.cache.Get(hash); ok {
		return content, nil
	}

	path := s.blobPath(hash)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ObjectNotFound(hash)
		}
		return nil, errors.IOFailure("reading blob", path, err)
	}

	if utils.HashContent(content) != hash {
		return nil, errors.Corrupt("blob content does not match its hash", hash)
	}

	s.cache.Add(hash, content)
	s.touch(hash)

	return content, nil
}

// Exists checks whether a blob is present without reading its content.
func (s *Store) Exists(hash string) (bool, error) {
	if !utils.IsValidHash(hash) {
		return false, nil
	}

	if s.cache.Contains(hash) {
		return true, nil
	}

	ok, err := s.meta.Has(hash)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	// Metadata can lag behind blobs copied in from elsewhere; the file
	// on disk is authoritative.
	_, err = os.Stat(s.blobPath(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.IOFailure("checking blob", s.blobPath(hash), err)
}

// Meta returns the bookkeeping record for a stored blob.
func (s *Store) Meta(hash string) (BlobMeta, error) {
	var meta BlobMeta
	if err := s.meta.Get(hash, &meta); err != nil {
		if err == storage.ErrNotFound {
			return BlobMeta{}, errors.ObjectNotFound(hash)
		}
		return BlobMeta{}, err
	}
	return meta, nil
}

func (s *Store) blobPath(hash string) string {
	return filepath.Join(s.root, hash)
}

func (s *Store) incrementRefCount(hash string) error {
	var meta BlobMeta
	err := s.meta.Get(hash, &meta)
	if err == storage.ErrNotFound {
		// Blob file exists but was never recorded; start fresh.
		info, statErr := os.Stat(s.blobPath(hash))
		if statErr != nil {
			return errors.IOFailure("checking blob", s.blobPath(hash), statErr)
		}
		meta = BlobMeta{Hash: hash, Size: info.Size(), CreatedAt: time.Now()}
	} else if err != nil {
		return err
	}

	meta.RefCount++
	meta.AccessedAt = time.Now()
	return s.meta.Put(hash, &meta)
}

func (s *Store) touch(hash string) {
	var meta BlobMeta
	if err := s.meta.Get(hash, &meta); err != nil {
		return
	}
	meta.AccessedAt = time.Now()
	s.meta.Put(hash, &meta)
}
