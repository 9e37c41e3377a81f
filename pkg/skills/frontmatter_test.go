package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerialize(t *testing.T) {
	t.Run("with dependencies and body", func(t *testing.T) {
		m := Metadata{
			Name:         "pdf-tools",
			Description:  "Work with PDF files",
			Dependencies: "poppler",
			Body:         "# PDF\n\nUse pdftotext.",
		}

		expected := "---\nname: pdf-tools\ndescription: Work with PDF files\ndependencies: poppler\n---\n\n# PDF\n\nUse pdftotext."
		assert.Equal(t, expected, Serialize(m))
	})

	t.Run("omits empty dependencies", func(t *testing.T) {
		m := Metadata{Name: "a", Description: "b", Body: "c"}
		assert.Equal(t, "---\nname: a\ndescription: b\n---\n\nc", Serialize(m))
	})

	t.Run("empty body ends at the delimiter", func(t *testing.T) {
		m := Metadata{Name: "a", Description: "b"}
		assert.Equal(t, "---\nname: a\ndescription: b\n---", Serialize(m))
	})
}

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
	}{
		{
			name: "all fields",
			meta: Metadata{Name: "git-helper", Description: "Git tips", Dependencies: "git", Body: "## Usage\n\nRun git status."},
		},
		{
			name: "no dependencies",
			meta: Metadata{Name: "notes", Description: "Take notes", Body: "Write things down."},
		},
		{
			name: "no body",
			meta: Metadata{Name: "empty", Description: "Nothing here"},
		},
		{
			name: "colon in description",
			meta: Metadata{Name: "urls", Description: "Fetch http://example.com: fast", Body: "body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.meta, Parse(Serialize(tt.meta)))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("ignores unknown keys and lines without a key", func(t *testing.T) {
		content := "---\nname: x\nversion: 2\n: orphan\nnot a pair\ndescription: y\n---\nbody\n"

		m := Parse(content)
		assert.Equal(t, "x", m.Name)
		assert.Equal(t, "y", m.Description)
		assert.Empty(t, m.Dependencies)
		assert.Equal(t, "body", m.Body)
	})

	t.Run("trims keys and values", func(t *testing.T) {
		m := Parse("---\n  name  :   spaced   \ndescription:d\n---")
		assert.Equal(t, "spaced", m.Name)
		assert.Equal(t, "d", m.Description)
	})

	t.Run("last duplicate key wins", func(t *testing.T) {
		m := Parse("---\nname: first\nname: second\n---\n")
		assert.Equal(t, "second", m.Name)
	})

	t.Run("empty block", func(t *testing.T) {
		m := Parse("---\n---\nhello")
		assert.Equal(t, Metadata{Body: "hello"}, m)
	})

	t.Run("malformed input yields empty metadata", func(t *testing.T) {
		for _, content := range []string{
			"",
			"# Just markdown",
			"---\nname: unterminated\n",
			"name: x\n---\n",
			" ---\nname: x\n---\n",
		} {
			assert.Equal(t, Metadata{}, Parse(content), "content: %q", content)
		}
	})
}

func TestHasFrontmatter(t *testing.T) {
	assert.True(t, HasFrontmatter("---\nname: a\n---\n"))
	assert.True(t, HasFrontmatter("---\nname: a\n---"))
	assert.False(t, HasFrontmatter("# Title"))
	assert.False(t, HasFrontmatter("---\nname: a\n"))
}
