package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteBundle creates <root>/<name>.bundle holding wasm as its executable
// and returns the bundle directory.
func WriteBundle(t *testing.T, root, name string, wasm []byte) string {
	t.Helper()
	dir := filepath.Join(root, name+".bundle")
	wasmDir := filepath.Join(dir, "Contents", "Wasm")
	require.NoError(t, os.MkdirAll(wasmDir, 0o755))
	manifest := "name: " + name + "\nexecutable: " + name + ".wasm\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Contents", "Info.yaml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(wasmDir, name+".wasm"), wasm, 0o644))
	return dir
}
