package manifest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherManifest = `name: ns.weather
version: 1.2.0
wasm: component.wasm
capabilities:
  - http
limits:
  memory_mb: 64
describes:
  - version: "1.0.0"
    schema:
      type: object
      required:
        - message
      properties:
        message:
          type: string
`

func packArchive(t *testing.T, compress bool) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range map[string]string{
		FileName:         weatherManifest,
		"component.wasm": "\x00asm",
	} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	if !compress {
		return buf.Bytes()
	}

	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	_, err := zw.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return zipped.Bytes()
}

func assertWeather(t *testing.T, m *Manifest) {
	t.Helper()
	assert.Equal(t, "ns.weather", m.Name)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, "component.wasm", m.Wasm)
	assert.Equal(t, []string{"http"}, m.Capabilities)
	assert.Equal(t, int64(64), m.Limits["memory_mb"])
	require.Len(t, m.Describes, 1)
	assert.Equal(t, "1.0.0", m.Describes[0].Version)
	assert.Contains(t, string(m.Describes[0].Schema), `"message"`)
}

func Test_Parse(t *testing.T) {
	m, err := Parse([]byte(weatherManifest))
	require.NoError(t, err)
	assertWeather(t, m)
}

func Test_Parse_RejectsIncompleteManifests(t *testing.T) {
	_, err := Parse([]byte("version: 1.0.0"))
	assert.ErrorContains(t, err, "no name")

	_, err = Parse([]byte("name: ns.foo"))
	assert.ErrorContains(t, err, "no version")

	_, err = Parse([]byte("{not yaml"))
	assert.Error(t, err)
}

func Test_Load_BareDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "component.yaml")
	require.NoError(t, os.WriteFile(path, []byte(weatherManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assertWeather(t, m)
}

func Test_Load_ComponentDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(weatherManifest), 0o644))

	m, err := Load(dir)
	require.NoError(t, err)
	assertWeather(t, m)
}

func Test_Load_DirectoryWithoutManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "no manifest found")
}

func Test_Load_PackArchive(t *testing.T) {
	for _, tc := range []struct {
		name     string
		compress bool
	}{
		{name: "tar"},
		{name: "tar+gzip", compress: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ns.weather.gtpack")
			require.NoError(t, os.WriteFile(path, packArchive(t, tc.compress), 0o644))

			m, err := Load(path)
			require.NoError(t, err)
			assertWeather(t, m)
		})
	}
}

func Test_Gate(t *testing.T) {
	cases := []struct {
		name        string
		version     string
		requirement string
		err         assert.ErrorAssertionFunc
	}{
		{name: "exact match", version: "1.0.0", requirement: "1.0.0", err: assert.NoError},
		{name: "caret match", version: "1.2.3", requirement: "^1.0", err: assert.NoError},
		{name: "tilde match", version: "2.1.4", requirement: "~2.1", err: assert.NoError},
		{name: "wildcard match", version: "3.0.0", requirement: "*", err: assert.NoError},
		{name: "caret violation", version: "0.9.0", requirement: "^1.0", err: assert.Error},
		{name: "tilde violation", version: "2.2.0", requirement: "~2.1", err: assert.Error},
		{name: "exact violation", version: "1.0.1", requirement: "1.0.0", err: assert.Error},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &Manifest{Name: "ns.foo", Version: tc.version}
			constraints, err := semver.NewConstraint(tc.requirement)
			require.NoError(t, err)

			tc.err(t, m.Gate(constraints, tc.requirement))
		})
	}
}

func Test_Gate_MismatchCarriesFoundAndRequired(t *testing.T) {
	m := &Manifest{Name: "ns.foo", Version: "0.9.0"}
	constraints, err := semver.NewConstraint("^1.0")
	require.NoError(t, err)

	gateErr := m.Gate(constraints, "^1.0")
	var mismatch *VersionMismatchError
	require.ErrorAs(t, gateErr, &mismatch)
	assert.Equal(t, "0.9.0", mismatch.Found)
	assert.Equal(t, "^1.0", mismatch.Required)
}

func Test_Gate_InvalidManifestVersion(t *testing.T) {
	m := &Manifest{Name: "ns.foo", Version: "not-semver"}
	constraints, err := semver.NewConstraint("*")
	require.NoError(t, err)

	assert.Error(t, m.Gate(constraints, "*"))
}
