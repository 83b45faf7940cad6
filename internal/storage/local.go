package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// localStorage implements Storage on a directory tree. Object keys map one to one
// onto paths below root, which is what makes the case layout readable by other tools.
// It is safe for concurrent use; no locking coordinates writers of the same key.
type localStorage struct {
	root string
}

// NewLocal creates a filesystem-backed Storage rooted at root.
// The root and its cases directory are created when missing.
func NewLocal(root string) (Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, filepath.FromSlash(CasesPrefix)), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localStorage{root: abs}, nil
}

func (l *localStorage) path(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *localStorage) key(p string) (string, error) {
	rel, err := filepath.Rel(l.root, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Put writes into a temporary file next to the target and renames it into place,
// so readers never observe a half-written object.
func (l *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	target, err := l.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, target)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return ObjectInfo{}, fmt.Errorf("write %s: %w", key, err)
	}

	info, err := l.Stat(ctx, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	info.Size = n
	if opt.ContentType != "" {
		info.ContentType = opt.ContentType
	}
	info.Metadata = opt.Metadata
	return info, nil
}

func (l *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := l.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	p, _ := l.path(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, err
	}
	return f, info, nil
}

func (l *localStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	p, err := l.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, err
	}
	if st.IsDir() {
		return ObjectInfo{}, ErrObjectNotFound
	}
	clean, _ := cleanKey(key)
	return ObjectInfo{
		Key:          clean,
		Size:         st.Size(),
		ContentType:  mime.TypeByExtension(path.Ext(clean)),
		LastModified: st.ModTime().UTC(),
	}, nil
}

// List walks the deepest directory named by prefix and keeps files whose key starts with it.
// A prefix that does not end in '/' may match partial filenames.
func (l *localStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	base := l.root
	if prefix != "" {
		dir := prefix
		if !strings.HasSuffix(prefix, "/") {
			dir = path.Dir(prefix)
		}
		p, err := l.path(dir)
		if err != nil {
			return nil, err
		}
		base = p
	}

	out := make([]ObjectInfo, 0)
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		key, err := l.key(p)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		out = append(out, ObjectInfo{
			Key:          key,
			Size:         st.Size(),
			ContentType:  mime.TypeByExtension(path.Ext(key)),
			LastModified: st.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	return out, nil
}

// RemoveAll deletes every file below the directory named by prefix, then the
// directories bottom-up, then the directory itself unless prefix is CasesPrefix,
// which stays so the layout root always exists. Every failure is collected and
// returned joined; a partial failure leaves the remaining entries in place.
func (l *localStorage) RemoveAll(ctx context.Context, prefix string) error {
	if !strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("%w: %q is not a directory prefix", ErrInvalidKey, prefix)
	}
	base, err := l.path(prefix)
	if err != nil {
		return err
	}

	var files, dirs []string
	var errs []error
	walkErr := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	// Reverse lexical order visits children before their parents.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		if d == base && prefix == CasesPrefix {
			continue
		}
		if err := os.Remove(d); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *localStorage) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("stat storage root: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", l.root)
	}
	return nil
}
