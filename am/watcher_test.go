package am

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_DebouncedChange(t *testing.T) {
	dir := t.TempDir()
	keysPath := filepath.Join(dir, "keys.toml")
	require.NoError(t, os.WriteFile(keysPath, []byte("# empty\n"), DefaultFilePermissions))

	fw, err := NewFileWatcher(keysPath)
	require.NoError(t, err)
	defer fw.Stop()
	fw.SetDebounce(20 * time.Millisecond)

	var mu sync.Mutex
	var calls []string
	fw.OnChange(func(path string) error {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, path)
		return nil
	})
	fw.Start()

	// A burst of writes collapses into one callback
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(keysPath, []byte("[[keys]]\nkey = \"a\"\n"), DefaultFilePermissions))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 1)
	abs, _ := filepath.Abs(keysPath)
	assert.Equal(t, abs, calls[0])
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "am.toml")
	require.NoError(t, os.WriteFile(watched, nil, DefaultFilePermissions))

	fw, err := NewFileWatcher(watched)
	require.NoError(t, err)
	defer fw.Stop()
	fw.SetDebounce(10 * time.Millisecond)

	called := make(chan string, 4)
	fw.OnChange(func(path string) error {
		called <- path
		return nil
	})
	fw.Start()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1\n"), DefaultFilePermissions))

	select {
	case p := <-called:
		t.Fatalf("unexpected callback for %s", p)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestFileWatcher_OnConfigReload(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "am.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[suggest]\ndebounce_ms = 10\n"), DefaultFilePermissions))

	fw, err := NewFileWatcher(configPath)
	require.NoError(t, err)
	defer fw.Stop()
	fw.SetDebounce(10 * time.Millisecond)

	reloaded := make(chan *Config, 1)
	fw.OnConfigReload(configPath, func(cfg *Config) error {
		reloaded <- cfg
		return nil
	})
	fw.Start()

	require.NoError(t, os.WriteFile(configPath, []byte("[suggest]\ndebounce_ms = 75\n"), DefaultFilePermissions))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 75, cfg.Suggest.DebounceMs)
	case <-time.After(2 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestNewFileWatcher_Errors(t *testing.T) {
	_, err := NewFileWatcher()
	assert.Error(t, err)

	_, err = NewFileWatcher(filepath.Join(t.TempDir(), "missing-dir", "am.toml"))
	assert.Error(t, err)
}
