package skills

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const importedSkill = "---\nname: pdf\ndescription: PDF tools\n---\n\nbody"

func TestStore_ImportSkill(t *testing.T) {
	ctx := context.Background()

	archives := map[string][]byte{
		"flat": buildZip(t, map[string]string{
			"SKILL.md":       importedSkill,
			"scripts/run.sh": "echo",
		}),
		"wrapped": buildZip(t, map[string]string{
			"pdf/SKILL.md":       importedSkill,
			"pdf/scripts/run.sh": "echo",
		}),
	}

	for name, data := range archives {
		t.Run(name, func(t *testing.T) {
			store := newTestStore(t)
			require.NoError(t, store.ImportSkill(ctx, "pdf", "docs", data))

			dir := filepath.Join(store.Root(), "docs__collection", "pdf")
			assert.FileExists(t, filepath.Join(dir, SkillFileName))
			assert.FileExists(t, filepath.Join(dir, "scripts", "run.sh"))
			assert.NoDirExists(t, filepath.Join(dir, "pdf"))

			entries, err := os.ReadDir(store.Root())
			require.NoError(t, err)
			assert.Len(t, entries, 1, "staging directory should be cleaned up")
		})
	}
}

func TestStore_ImportSkill_Failures(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateSkill(ctx, "", Metadata{Name: "taken", Description: "d"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		skill   string
		data    []byte
		kind    Kind
		message string
	}{
		{
			name:    "existing skill",
			skill:   "taken",
			data:    buildZip(t, map[string]string{"SKILL.md": importedSkill}),
			kind:    KindConflict,
			message: "Skill already exists",
		},
		{
			name:    "missing SKILL.md",
			skill:   "no-meta",
			data:    buildZip(t, map[string]string{"README.md": "hi"}),
			kind:    KindBadRequest,
			message: "archive does not contain SKILL.md",
		},
		{
			name:  "not a zip",
			skill: "garbage",
			data:  []byte("not a zip"),
			kind:  KindBadRequest,
		},
		{
			name:    "zip slip",
			skill:   "evil",
			data:    buildZip(t, map[string]string{"SKILL.md": importedSkill, "../../escape.txt": "x"}),
			kind:    KindBadRequest,
			message: "archive contains unsafe paths",
		},
		{
			name:  "invalid name",
			skill: "Bad Name",
			data:  buildZip(t, map[string]string{"SKILL.md": importedSkill}),
			kind:  KindBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ImportSkill(ctx, tt.skill, "", tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, MessageOf(err))
			}
		})
	}

	assert.NoFileExists(t, filepath.Join(filepath.Dir(store.Root()), "escape.txt"))

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "taken", entries[0].Name())
}

func TestStore_ImportArchives(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	result := store.ImportArchives(ctx, "", []Upload{
		{Filename: "good.zip", Data: buildZip(t, map[string]string{"SKILL.md": importedSkill})},
		{Filename: "bad.zip", Data: buildZip(t, map[string]string{"notes.md": "x"})},
		{Filename: "also-good.zip", Data: buildZip(t, map[string]string{"also-good/SKILL.md": importedSkill})},
	})

	assert.Equal(t, []string{"good", "also-good"}, result.Imported)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "bad", result.Failed[0].Name)
	assert.Contains(t, result.Failed[0].Error, "SKILL.md")
	assert.Error(t, result.Err())

	skills, err := store.ListSkills(ctx)
	require.NoError(t, err)
	assert.Len(t, skills, 2)

	empty := store.ImportArchives(ctx, "", nil)
	assert.Empty(t, empty.Imported)
	assert.NoError(t, empty.Err())
}

func TestStore_ExportSkill(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	m := Metadata{Name: "pdf", Description: "PDF tools"}
	_, err := store.CreateSkill(ctx, "", m)
	require.NoError(t, err)
	require.NoError(t, store.WriteFile(ctx, Address{Skill: "pdf"}, "scripts/run.sh", []byte("echo")))

	data, err := store.ExportSkill(ctx, Address{Skill: "pdf"})
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "pdf/SKILL.md")
	assert.Contains(t, names, "pdf/scripts/run.sh")

	// an exported archive imports back to the same layout
	other := newTestStore(t)
	require.NoError(t, other.ImportSkill(ctx, "pdf", "", data))
	content, err := os.ReadFile(filepath.Join(other.Root(), "pdf", SkillFileName))
	require.NoError(t, err)
	assert.Equal(t, Serialize(m), string(content))

	_, err = store.ExportSkill(ctx, Address{Skill: "ghost"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSkillNameFromArchive(t *testing.T) {
	assert.Equal(t, "pdf", SkillNameFromArchive("pdf.zip"))
	assert.Equal(t, "pdf", SkillNameFromArchive("downloads/pdf.zip"))
	assert.Equal(t, "pdf", SkillNameFromArchive(`C:\Users\me\pdf.zip`))
}
