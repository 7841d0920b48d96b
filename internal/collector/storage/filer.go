package storage

import "context"

// Filer is the minimal VFS-style capability set the shared content-
// addressing core needs from a concrete backend. Paths are always
// "/"-joined and relative to the backend's root, regardless of whether
// the concrete backend is a local directory tree or an object store
// bucket.
type Filer interface {
	// EnsureDir makes sure dirPath exists as an addressable location. A
	// no-op for object stores, where "directories" are just prefixes.
	EnsureDir(ctx context.Context, dirPath string) error

	// List returns the paths of objects at or under prefix. If
	// recursive is false, only the immediate children of prefix are
	// returned.
	List(ctx context.Context, prefix string, recursive bool) ([]string, error)

	// Get reads the full contents of filePath.
	Get(ctx context.Context, filePath string) ([]byte, error)

	// Put writes data to filePath, creating or overwriting it.
	Put(ctx context.Context, filePath string, data []byte, contentType string) error

	// Delete removes filePath. Deleting a nonexistent path is not an
	// error.
	Delete(ctx context.Context, filePath string) error

	// Copy duplicates srcPath's current contents to dstPath.
	Copy(ctx context.Context, srcPath, dstPath string) error
}
