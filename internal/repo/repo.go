// internal/repo/repo.go
package repo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"grit/internal/commit"
	"grit/internal/config"
	"grit/internal/content"
	"grit/internal/errors"
	"grit/internal/index"
	"grit/internal/lock"
	"grit/internal/refs"
	"grit/internal/status"
	"grit/internal/worktree"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	GritDir    = ".grit"
	blobsDir   = "blobs"
	commitsDir = "commits"
	stagedDir  = "staged"
	dbDir      = "db"
	headFile   = "HEAD"
	lockFile   = "HEAD.lock"
	configFile = "config.json"
)

// Repository is the handle every operation goes through. One is opened
// per CLI invocation; state is explicitly passed rather than kept in
// process-wide globals, so multiple repositories can coexist in tests.
type Repository struct {
	Root    string
	Config  *config.Config
	DB      *badger.DB
	Blobs   *content.Store
	Commits *commit.Store
	Logger  *zap.Logger
}

// Initialize creates the empty repository layout under root. Existing
// files are left untouched, so rerunning init is harmless.
func Initialize(root string) error {
	gritDir := filepath.Join(root, GritDir)

	for _, dir := range []string{
		gritDir,
		filepath.Join(gritDir, blobsDir),
		filepath.Join(gritDir, commitsDir),
		filepath.Join(gritDir, stagedDir),
		filepath.Join(gritDir, dbDir),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.IOFailure("creating directory", dir, err)
		}
	}

	headPath := filepath.Join(gritDir, headFile)
	if _, err := os.Stat(headPath); os.IsNotExist(err) {
		cfg := config.Default()
		head := &refs.Head{Branch: cfg.Branch}
		if err := head.Save(headPath); err != nil {
			return err
		}
		if err := cfg.Save(filepath.Join(gritDir, configFile)); err != nil {
			return errors.IOFailure("writing config", configFile, err)
		}
	}

	// Materialize empty index files so the layout is complete.
	idx, err := index.Load(gritDir)
	if err != nil {
		return err
	}
	return idx.Clear()
}

// FindRoot walks up from startDir looking for the repository directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.IOFailure("resolving path", startDir, err)
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, GritDir)); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.ErrNotARepository
}

// Open locates the repository containing path and opens its stores.
func Open(path string, logger *zap.Logger) (*Repository, error) {
	root, err := FindRoot(path)
	if err != nil {
		return nil, err
	}

	gritDir := filepath.Join(root, GritDir)

	cfg, err := config.Load(filepath.Join(gritDir, configFile))
	if err != nil {
		return nil, errors.IOFailure("loading config", configFile, err)
	}

	opts := badger.DefaultOptions(filepath.Join(gritDir, dbDir))
	opts.Logger = nil // Disable logging noise

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.IOFailure("opening metadata database", dbDir, err)
	}

	blobs, err := content.New(db, content.Options{
		Root:      filepath.Join(gritDir, blobsDir),
		CacheSize: 1000,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	commits, err := commit.NewStore(filepath.Join(gritDir, commitsDir))
	if err != nil {
		db.Close()
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Repository{
		Root:    root,
		Config:  cfg,
		DB:      db,
		Blobs:   blobs,
		Commits: commits,
		Logger:  logger,
	}, nil
}

// Close releases the metadata database.
func (r *Repository) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

func (r *Repository) gritDir() string {
	return filepath.Join(r.Root, GritDir)
}

func (r *Repository) headPath() string {
	return filepath.Join(r.gritDir(), headFile)
}

// Head loads the current branch pointer.
func (r *Repository) Head() (*refs.Head, error) {
	return refs.Load(r.headPath())
}

// Tip returns the current branch tip hash, empty before the first commit.
func (r *Repository) Tip() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", err
	}
	return head.Tip, nil
}

// tipSnapshot returns the tip commit's path->hash snapshot, or an
// empty map when no commit exists yet.
func (r *Repository) tipSnapshot() (map[string]string, string, error) {
	head, err := r.Head()
	if err != nil {
		return nil, "", err
	}
	if head.Tip == "" {
		return make(map[string]string), "", nil
	}

	c, err := r.Commits.Get(head.Tip)
	if err != nil {
		return nil, "", err
	}
	return c.Blobs, head.Tip, nil
}

// relPath converts a user-supplied path, relative to the current
// working directory, into a slash-separated path relative to the
// repository root.
func (r *Repository) relPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.IOFailure("resolving path", path, err)
	}
	rel, err := filepath.Rel(r.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &errors.Error{
			Type:    errors.ErrorTypeIOFailure,
			Message: "path is outside the repository",
			Path:    path,
		}
	}
	return filepath.ToSlash(rel), nil
}

// Add stages the given working-tree paths for the next commit. Blob
// content is stored in the object store and mirrored into the staged
// objects directory.
func (r *Repository) Add(paths []string) error {
	lk, err := lock.Acquire(filepath.Join(r.gritDir(), lockFile))
	if err != nil {
		return err
	}
	defer lk.Release()

	idx, err := index.Load(r.gritDir())
	if err != nil {
		return err
	}
	scanner := worktree.NewScanner(r.Root, r.Config.Ignore)

	for _, path := range paths {
		rel, err := r.relPath(path)
		if err != nil {
			return err
		}
		// The scanner will never report this path, so staging it would
		// leave status unable to classify it.
		if scanner.Ignored(rel) {
			return errors.Ignored(rel)
		}

		data, err := os.ReadFile(filepath.Join(r.Root, rel))
		if err != nil {
			return errors.IOFailure("reading file", rel, err)
		}

		hash, err := r.Blobs.Store(data)
		if err != nil {
			return err
		}
		if err := r.mirrorStaged(hash); err != nil {
			return err
		}

		prev := idx.Staged[rel]
		if err := idx.StageAdd(rel, hash); err != nil {
			return err
		}
		if prev != hash {
			if err := r.pruneStagedMirror(idx, prev); err != nil {
				return err
			}
		}

		r.Logger.Debug("staged file",
			zap.String("path", rel),
			zap.String("hash", hash))
	}

	return nil
}

// Remove unstages paths that have a pending addition; paths tracked in
// the tip commit are staged for removal instead and deleted from the
// working tree. Anything else has no reason to be removed.
func (r *Repository) Remove(paths []string) error {
	lk, err := lock.Acquire(filepath.Join(r.gritDir(), lockFile))
	if err != nil {
		return err
	}
	defer lk.Release()

	idx, err := index.Load(r.gritDir())
	if err != nil {
		return err
	}
	tip, _, err := r.tipSnapshot()
	if err != nil {
		return err
	}

	for _, path := range paths {
		rel, err := r.relPath(path)
		if err != nil {
			return err
		}

		switch {
		case idx.IsStaged(rel):
			prev := idx.Staged[rel]
			if err := idx.Unstage(rel); err != nil {
				return err
			}
			if err := r.pruneStagedMirror(idx, prev); err != nil {
				return err
			}
		case tip[rel] != "":
			if err := idx.StageRemove(rel); err != nil {
				return err
			}
			abs := filepath.Join(r.Root, rel)
			if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
				return errors.IOFailure("removing file", rel, err)
			}
		default:
			return errors.ErrNoReasonToRemove
		}

		r.Logger.Debug("removed file", zap.String("path", rel))
	}

	return nil
}

// Commit records a new commit from the staged state and advances the
// branch tip. The commit file is written before HEAD moves, so a crash
// in between never leaves the tip pointing at an unwritten commit.
func (r *Repository) Commit(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.ErrEmptyMessage
	}

	lk, err := lock.Acquire(filepath.Join(r.gritDir(), lockFile))
	if err != nil {
		return "", err
	}
	defer lk.Release()

	idx, err := index.Load(r.gritDir())
	if err != nil {
		return "", err
	}
	if idx.Empty() {
		return "", errors.ErrEmptyStagingArea
	}

	snapshot, parent, err := r.tipSnapshot()
	if err != nil {
		return "", err
	}

	blobs := make(map[string]string, len(snapshot))
	for path, hash := range snapshot {
		blobs[path] = hash
	}
	for path, hash := range idx.Snapshot() {
		blobs[path] = hash
	}
	for _, path := range idx.Removals() {
		delete(blobs, path)
	}

	c, err := commit.New(parent, message, time.Now().UnixNano(), blobs)
	if err != nil {
		return "", err
	}

	if err := r.Commits.Put(c); err != nil {
		return "", err
	}

	head, err := r.Head()
	if err != nil {
		return "", err
	}
	head.Tip = c.Hash
	if err := head.Save(r.headPath()); err != nil {
		return "", err
	}

	if err := idx.Clear(); err != nil {
		return "", err
	}
	if err := r.clearStagedMirror(); err != nil {
		return "", err
	}

	r.Logger.Info("created commit",
		zap.String("hash", c.Hash),
		zap.String("parent", parent),
		zap.Int("files", len(blobs)))

	return c.Hash, nil
}

// History returns a walker over commits from the current tip back to
// the root, newest first. Each call re-reads the tip, so commits made
// since a previous walk are included.
func (r *Repository) History() (*commit.Walker, error) {
	tip, err := r.Tip()
	if err != nil {
		return nil, err
	}
	return r.Commits.Walk(tip), nil
}

// Status reconciles the working tree, the staging index and the tip
// snapshot into a classification report.
func (r *Repository) Status() (*status.Report, string, error) {
	head, err := r.Head()
	if err != nil {
		return nil, "", err
	}

	idx, err := index.Load(r.gritDir())
	if err != nil {
		return nil, "", err
	}
	tip, _, err := r.tipSnapshot()
	if err != nil {
		return nil, "", err
	}

	scanner := worktree.NewScanner(r.Root, r.Config.Ignore)
	tree, err := scanner.Scan()
	if err != nil {
		return nil, "", err
	}

	report := status.Reconcile(tree, idx.Snapshot(), removalSet(idx.Removals()), tip)
	return report, head.Branch, nil
}

func removalSet(paths []string) map[string]bool {
	m := make(map[string]bool, len(paths))
	for _, p := range paths {
		m[p] = true
	}
	return m
}

// mirrorStaged copies a staged blob object into the staged directory,
// keyed by hash like the object store itself.
func (r *Repository) mirrorStaged(hash string) error {
	path := filepath.Join(r.gritDir(), stagedDir, hash)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := r.Blobs.Get(hash)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.IOFailure("writing staged object", path, err)
	}
	return nil
}

// pruneStagedMirror removes a mirrored object once no staged entry
// references its hash anymore, keeping the staged directory an exact
// mirror of the index.
func (r *Repository) pruneStagedMirror(idx *index.Index, hash string) error {
	if hash == "" {
		return nil
	}
	for _, h := range idx.Staged {
		if h == hash {
			return nil
		}
	}

	path := filepath.Join(r.gritDir(), stagedDir, hash)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.IOFailure("removing staged object", path, err)
	}
	return nil
}

// clearStagedMirror empties the staged objects directory after a commit.
func (r *Repository) clearStagedMirror() error {
	dir := filepath.Join(r.gritDir(), stagedDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.IOFailure("reading staged directory", dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			return errors.IOFailure("removing staged object", path, err)
		}
	}
	return nil
}
