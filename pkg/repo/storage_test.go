package repo

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

// testStorages returns every storage backend so they all run through the
// same contract checks
func testStorages(t *testing.T) map[string]Storage {
	t.Helper()
	ctx := context.Background()

	fs, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })

	sqlite, err := NewSQLiteStorage(t.TempDir() + "/storage.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Storage{
		"filesystem": fs,
		"blob":       NewBlobStorageFromBucket(bucket, "test-prefix"),
		"sqlite":     sqlite,
	}
}

func TestStorage_WriteRead(t *testing.T) {
	ctx := context.Background()
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			err := storage.Write(ctx, "test-key", []byte("test-data"))
			require.NoError(t, err)

			data, err := storage.Read(ctx, "test-key")
			require.NoError(t, err)
			assert.Equal(t, []byte("test-data"), data)
		})
	}
}

func TestStorage_Overwrite(t *testing.T) {
	ctx := context.Background()
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, storage.Write(ctx, "test-key", []byte("original")))
			require.NoError(t, storage.Write(ctx, "test-key", []byte("updated")))

			data, err := storage.Read(ctx, "test-key")
			require.NoError(t, err)
			assert.Equal(t, []byte("updated"), data)
		})
	}
}

func TestStorage_Read_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			_, err := storage.Read(ctx, "nonexistent-key")
			require.Error(t, err)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestStorage_List(t *testing.T) {
	ctx := context.Background()
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, storage.Write(ctx, "prefix-a", []byte("a")))
			require.NoError(t, storage.Write(ctx, "prefix-b", []byte("b")))
			require.NoError(t, storage.Write(ctx, "prefix-c", []byte("c")))
			require.NoError(t, storage.Write(ctx, "other-key", []byte("other")))

			keys, err := storage.List(ctx, "prefix-")
			require.NoError(t, err)
			require.Len(t, keys, 3)
			// Should be sorted descending
			assert.Equal(t, "prefix-c", keys[0])
			assert.Equal(t, "prefix-b", keys[1])
			assert.Equal(t, "prefix-a", keys[2])
		})
	}
}

func TestStorage_List_Empty(t *testing.T) {
	ctx := context.Background()
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			keys, err := storage.List(ctx, "nonexistent-")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, storage.Write(ctx, "test-key", []byte("test-data")))
			require.NoError(t, storage.Delete(ctx, "test-key"))

			_, err := storage.Read(ctx, "test-key")
			require.Error(t, err)
			assert.True(t, os.IsNotExist(err))

			// Delete is idempotent
			require.NoError(t, storage.Delete(ctx, "test-key"))
		})
	}
}

func TestFilesystemStorage_ConcurrentOperations(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := "concurrent-key"
			_ = storage.Write(ctx, key, []byte("data"))
			_, _ = storage.Read(ctx, key)
			_, _ = storage.List(ctx, "concurrent-")
		}()
	}
	wg.Wait()
}

func TestFilesystemStorage_Close(t *testing.T) {
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, storage.Close())
}
