// Package render converts skill Markdown into HTML for previews.
package render

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			meta.Meta,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	// plain renders bodies whose frontmatter block is not valid YAML
	plain = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	delimiter = []byte("---")
	opening   = []byte("---\n")
)

// Document is a rendered Markdown file
type Document struct {
	HTML string `json:"html"`
	// Frontmatter is the leading YAML block, decoded. Nil when absent or not valid YAML.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// Markdown renders src as HTML. A leading frontmatter block is consumed
// and returned separately instead of being rendered. A block that is not
// valid YAML, such as a value holding a colon, is still kept out of the
// HTML and leaves Frontmatter nil.
func Markdown(src []byte) (*Document, error) {
	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := markdown.Convert(src, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to render markdown")
	}

	frontmatter, err := meta.TryGet(pctx)
	if err == nil {
		return &Document{HTML: buf.String(), Frontmatter: frontmatter}, nil
	}

	buf.Reset()
	if err := plain.Convert(stripFrontmatter(src), &buf); err != nil {
		return nil, errors.Wrap(err, "failed to render markdown")
	}
	return &Document{HTML: buf.String()}, nil
}

// stripFrontmatter returns src without its leading "---" delimited block
func stripFrontmatter(src []byte) []byte {
	rest, ok := bytes.CutPrefix(src, opening)
	if !ok {
		return src
	}

	for offset := 0; ; {
		end := bytes.IndexByte(rest[offset:], '\n')
		line := rest[offset:]
		if end >= 0 {
			line = rest[offset : offset+end]
		}

		if bytes.Equal(bytes.TrimRight(line, " \t\r"), delimiter) {
			if end < 0 {
				return nil
			}
			return rest[offset+end+1:]
		}

		if end < 0 {
			return src
		}
		offset += end + 1
	}
}
