package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMTX = `%%MatrixMarket matrix coordinate pattern symmetric
% comment line
4 4 3

2 1 1.0
3 1
4 3 7
5
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestConvertMTX(t *testing.T) {
	mtx := filepath.Join(t.TempDir(), "net.mtx")
	writeFile(t, mtx, sampleMTX)

	out, err := ConvertMTX(mtx, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(mtx), "net.txt"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "2 1\n3 1\n4 3\n", string(data))
}

func TestConvertMTXDryRun(t *testing.T) {
	mtx := filepath.Join(t.TempDir(), "net.mtx")
	writeFile(t, mtx, sampleMTX)

	out, err := ConvertMTX(mtx, true)
	require.NoError(t, err)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestNormalizeFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "a.mtx"), sampleMTX)
	writeFile(t, filepath.Join(root, "a", "readme.md"), "x")
	writeFile(t, filepath.Join(root, "a", "extra", "junk"), "x")
	writeFile(t, filepath.Join(root, "b", "b.txt"), "1 2\n")

	report, err := NormalizeFolder(root, false, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "a", "a.txt")}, report.Converted)
	assert.Equal(t, []string{filepath.Join(root, "b")}, report.Skipped)
	assert.Len(t, report.Removed, 3)

	entries, err := os.ReadDir(filepath.Join(root, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
}

func TestNormalizeFolderEdges(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "brain", "scan", "a", "net.edges"), "% header\n1 2 0.5\n2 3 0.1\n")
	writeFile(t, filepath.Join(root, "brain", "scan", "b", "net.edges"), "4 5\n")
	writeFile(t, filepath.Join(root, "brain", "notes.md"), "x")

	report, err := NormalizeFolder(root, false, zerolog.Nop())
	require.NoError(t, err)

	first := filepath.Join(root, "brain", "net.txt")
	second := filepath.Join(root, "brain", "net_1.txt")
	assert.Equal(t, []string{first, second}, report.Converted)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "brain", "notes.md"),
		filepath.Join(root, "brain", "scan"),
	}, report.Removed)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "1 2\n2 3\n", string(data))
	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "4 5\n", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "brain"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "net.txt"), "")

	taken := map[string]bool{filepath.Join(dir, "net_1.txt"): true}
	assert.Equal(t, filepath.Join(dir, "net_2.txt"), uniquePath(dir, "net", ".txt", taken))
	assert.Equal(t, filepath.Join(dir, "other.txt"), uniquePath(dir, "other", ".txt", taken))
}

func TestNormalizeFolderDryRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "a.mtx"), sampleMTX)

	report, err := NormalizeFolder(root, true, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, report.Converted, 1)
	assert.Len(t, report.Removed, 1)

	_, err = os.Stat(filepath.Join(root, "a", "a.mtx"))
	assert.NoError(t, err, "dry run must not delete")
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "zebra", "z.txt"), "1 2\n")
	writeFile(t, filepath.Join(root, "ants", "b.txt"), "1 2\n")
	writeFile(t, filepath.Join(root, "ants", "a.txt"), "1 2\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))
	writeFile(t, filepath.Join(root, "stray.txt"), "1 2\n")

	networks, err := Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []Network{
		{Name: "ants", Path: filepath.Join(root, "ants", "a.txt")},
		{Name: "zebra", Path: filepath.Join(root, "zebra", "z.txt")},
	}, networks)

	single, err := Discover(filepath.Join(root, "stray.txt"))
	require.NoError(t, err)
	assert.Equal(t, []Network{{Name: "stray", Path: filepath.Join(root, "stray.txt")}}, single)

	_, err = Discover(filepath.Join(root, "empty"))
	assert.ErrorIs(t, err, ErrNoNetworks)

	_, err = Discover(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
