package fs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrdcc/internal/collector/storage"
)

func defaultTestConfig() storage.Config { return storage.DefaultConfig() }

func discardLogger() zerolog.Logger { return zerolog.Nop() }

func TestFiler_PutGetRoundTrip(t *testing.T) {
	filer := &Filer{RootPath: t.TempDir()}
	ctx := context.Background()

	require.NoError(t, filer.Put(ctx, "a/b/doc.wsdl", []byte("hello"), "text/xml"))

	data, err := filer.Get(ctx, "a/b/doc.wsdl")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestFiler_ListNonRecursiveReturnsImmediateChildren(t *testing.T) {
	filer := &Filer{RootPath: t.TempDir()}
	ctx := context.Background()

	require.NoError(t, filer.Put(ctx, "sub/a.json", []byte("{}"), "application/json"))
	require.NoError(t, filer.Put(ctx, "sub/b.json", []byte("{}"), "application/json"))
	require.NoError(t, filer.Put(ctx, "sub/nested/c.json", []byte("{}"), "application/json"))

	names, err := filer.List(ctx, "sub", false)
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"sub/a.json", "sub/b.json", "sub/nested"}, names)
}

func TestFiler_ListRecursiveWalksSubdirectories(t *testing.T) {
	filer := &Filer{RootPath: t.TempDir()}
	ctx := context.Background()

	require.NoError(t, filer.Put(ctx, "sub/a.json", []byte("{}"), "application/json"))
	require.NoError(t, filer.Put(ctx, "sub/nested/c.json", []byte("{}"), "application/json"))

	names, err := filer.List(ctx, "sub", true)
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"sub/a.json", "sub/nested/c.json"}, names)
}

func TestFiler_ListMissingPrefixReturnsEmpty(t *testing.T) {
	filer := &Filer{RootPath: t.TempDir()}
	names, err := filer.List(context.Background(), "nonexistent", false)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFiler_DeleteNonexistentIsNotAnError(t *testing.T) {
	filer := &Filer{RootPath: t.TempDir()}
	assert.NoError(t, filer.Delete(context.Background(), "missing.wsdl"))
}

func TestFiler_Copy(t *testing.T) {
	filer := &Filer{RootPath: t.TempDir()}
	ctx := context.Background()

	require.NoError(t, filer.Put(ctx, "index_2024.json", []byte(`["snapshot"]`), "application/json"))
	require.NoError(t, filer.Copy(ctx, "index_2024.json", "index.json"))

	data, err := filer.Get(ctx, "index.json")
	require.NoError(t, err)
	assert.Equal(t, `["snapshot"]`, string(data))
}

func TestNewBackend_ActivatesAndRootsUnderPath(t *testing.T) {
	root := t.TempDir()
	backend := NewBackend(root, defaultTestConfig(), discardLogger())
	assert.True(t, backend.Active())

	ctx := context.Background()
	storagePath, hashes, err := backend.SubsystemState(ctx, "INSTANCE/CLASS/MEMBER/SUB", "wsdl")
	require.NoError(t, err)
	assert.Equal(t, "INSTANCE/CLASS/MEMBER/SUB", storagePath)
	assert.Empty(t, hashes)

	info, err := os.Stat(filepath.Join(root, "INSTANCE", "CLASS", "MEMBER", "SUB"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
