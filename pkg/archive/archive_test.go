package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipOf(t *testing.T, names ...string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, name := range names {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func TestPack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("meta"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "refs", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refs", "deep", "a.txt"), []byte("a"), 0o644))

	data, err := Pack(dir, "my-skill")
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := map[string]*zip.File{}
	for _, f := range r.File {
		entries[f.Name] = f
	}

	assert.Contains(t, entries, "my-skill/")
	assert.Contains(t, entries, "my-skill/refs/")
	assert.Contains(t, entries, "my-skill/refs/deep/")
	require.Contains(t, entries, "my-skill/SKILL.md")
	require.Contains(t, entries, "my-skill/refs/deep/a.txt")

	rc, err := entries["my-skill/SKILL.md"].Open()
	require.NoError(t, err)
	defer rc.Close()
	content := new(bytes.Buffer)
	_, err = content.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, "meta", content.String())
}

func TestPack_MissingDir(t *testing.T) {
	_, err := Pack(filepath.Join(t.TempDir(), "missing"), "x")
	assert.Error(t, err)
}

func TestUnpack(t *testing.T) {
	tests := []struct {
		name     string
		entries  []string
		expected []string
	}{
		{
			name:     "flat",
			entries:  []string{"SKILL.md", "scripts/run.sh"},
			expected: []string{"SKILL.md", "scripts/run.sh"},
		},
		{
			name:     "single wrapper directory is lifted",
			entries:  []string{"pdf/SKILL.md", "pdf/scripts/run.sh"},
			expected: []string{"SKILL.md", "scripts/run.sh"},
		},
		{
			name:     "wrapper containing a same-named child",
			entries:  []string{"pdf/pdf/notes.md", "pdf/SKILL.md"},
			expected: []string{"SKILL.md", "pdf/notes.md"},
		},
		{
			name:     "two top-level directories are kept",
			entries:  []string{"a/SKILL.md", "b/SKILL.md"},
			expected: []string{"a/SKILL.md", "b/SKILL.md"},
		},
		{
			name:     "single top-level file is kept",
			entries:  []string{"SKILL.md"},
			expected: []string{"SKILL.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "out")
			require.NoError(t, Unpack(zipOf(t, tt.entries...), dest))
			assert.Equal(t, tt.expected, listTree(t, dest))
		})
	}
}

func TestUnpack_RoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "SKILL.md"), []byte("meta"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))

	data, err := Pack(src, "skill")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Unpack(data, dest))

	content, err := os.ReadFile(filepath.Join(dest, "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "meta", string(content))
	assert.DirExists(t, filepath.Join(dest, "empty"))
}

func TestUnpack_UnsafePaths(t *testing.T) {
	for _, name := range []string{"../escape.txt", "a/../../escape.txt", "/abs.txt", `..\escape.txt`} {
		t.Run(name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "out")

			err := Unpack(zipOf(t, "SKILL.md", name), dest)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsafePath), "got %v", err)
			assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))
		})
	}
}

func TestUnpack_InvalidArchive(t *testing.T) {
	err := Unpack([]byte("definitely not a zip"), filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsafePath))
}
