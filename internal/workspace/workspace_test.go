package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(coordinate, name, version string) Record {
	return Record{
		Coordinate: coordinate,
		Entry: Entry{
			Name:     name,
			Version:  version,
			FileWasm: filepath.Join(".greentic", "cache", name+"-"+version, "component.wasm"),
			Hash:     "sha256:" + name,
		},
	}
}

func Test_Load_MissingFileIsEmptyManifest(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), ManifestFile))
	require.NoError(t, err)
	assert.Empty(t, m.Components)
}

func Test_Load_MalformedContentIsSurfaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "components.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)

	var writeErr *ManifestWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, path, writeErr.Path)
}

func Test_Upsert_AppendsNewComponents(t *testing.T) {
	m := &Manifest{}
	m.Upsert(record("ns.foo@^1.0", "ns.foo", "1.0.0"))
	m.Upsert(record("ns.bar", "ns.bar", "2.0.0"))

	require.Len(t, m.Components, 2)
	assert.Equal(t, "ns.foo", m.Components[0].Entry.Name)
	assert.Equal(t, "ns.bar", m.Components[1].Entry.Name)
}

func Test_Upsert_ReplacesInPlace(t *testing.T) {
	m := &Manifest{}
	m.Upsert(record("ns.first", "ns.first", "1.0.0"))
	m.Upsert(record("ns.foo@^1.0", "ns.foo", "1.0.0"))
	m.Upsert(record("ns.last", "ns.last", "1.0.0"))

	m.Upsert(record("ns.foo@^1.0", "ns.foo", "1.1.0"))

	require.Len(t, m.Components, 3, "re-resolving must not grow the manifest")
	assert.Equal(t, "ns.first", m.Components[0].Entry.Name, "unrelated entries keep their position")
	assert.Equal(t, "ns.foo", m.Components[1].Entry.Name, "replaced entry keeps its position")
	assert.Equal(t, "1.1.0", m.Components[1].Entry.Version)
	assert.Equal(t, "ns.last", m.Components[2].Entry.Name)
}

func Test_Upsert_PersistedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)

	require.NoError(t, Upsert(path, record("ns.foo@^1.0", "ns.foo", "1.0.0")))
	require.NoError(t, Upsert(path, record("ns.bar", "ns.bar", "2.0.0")))
	require.NoError(t, Upsert(path, record("ns.foo@^1.0", "ns.foo", "1.1.0")))

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Components, 2)
	assert.Equal(t, "1.1.0", m.Components[0].Entry.Version)
	assert.Equal(t, "ns.bar", m.Components[1].Entry.Name)
}

func Test_Save_WireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "components.json")
	m := &Manifest{}
	m.Upsert(Record{
		Coordinate: "ns.foo@^1.0",
		Entry:      Entry{Name: "ns.foo", Version: "1.0.0", FileWasm: "cache/ns-foo-1.0.0/component.wasm", Hash: "sha256:abc"},
	})
	require.NoError(t, Save(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	components, ok := raw["components"].([]any)
	require.True(t, ok)
	require.Len(t, components, 1)

	first, ok := components[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ns.foo@^1.0", first["coordinate"])
	entry, ok := first["entry"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ns.foo", entry["name"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Equal(t, "cache/ns-foo-1.0.0/component.wasm", entry["file_wasm"])
	assert.Equal(t, "sha256:abc", entry["hash"])
}

func Test_Save_LeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "components.json")
	require.NoError(t, Save(path, &Manifest{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "components.json", entries[0].Name())
}

func Test_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".greentic"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(
		"cache_dir: /var/cache/greentic\noffline: true\nfetch_timeout: 45s\n",
	), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/greentic", cfg.CacheDir)
	assert.True(t, cfg.Offline)

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, "45s", timeout.String())
}

func Test_LoadConfig_MissingFileIsZeroConfig(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Zero(t, timeout)
}
