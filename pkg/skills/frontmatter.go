package skills

import (
	"strings"
)

const frontmatterDelimiter = "---"

// Serialize renders metadata as SKILL.md text.
//
// The dependencies line is only written when non-empty, and nothing follows
// the closing delimiter when the body is empty. Values are written verbatim
// without escaping, so a value containing a newline cannot be read back.
func Serialize(m Metadata) string {
	var sb strings.Builder

	sb.WriteString(frontmatterDelimiter + "\n")
	sb.WriteString("name: " + m.Name + "\n")
	sb.WriteString("description: " + m.Description)
	if m.Dependencies != "" {
		sb.WriteString("\ndependencies: " + m.Dependencies)
	}
	sb.WriteString("\n" + frontmatterDelimiter)

	if m.Body != "" {
		sb.WriteString("\n\n" + m.Body)
	}

	return sb.String()
}

// Parse reads SKILL.md text into metadata.
//
// Parsing is lenient: text without a well-formed frontmatter block yields
// an empty Metadata rather than an error. Each block line is split on its
// first colon, so a value may contain colons but a key may not. Keys other
// than name, description and dependencies are dropped.
func Parse(content string) Metadata {
	var m Metadata

	block, body, ok := splitFrontmatter(content)
	if !ok {
		return m
	}

	for _, line := range strings.Split(block, "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		switch key {
		case "name":
			m.Name = value
		case "description":
			m.Description = value
		case "dependencies":
			m.Dependencies = value
		}
	}

	m.Body = strings.TrimSpace(body)
	return m
}

// HasFrontmatter reports whether content starts with a well-formed frontmatter block
func HasFrontmatter(content string) bool {
	_, _, ok := splitFrontmatter(content)
	return ok
}

// splitFrontmatter returns the text between the opening and closing
// delimiter lines and everything after the closing delimiter.
func splitFrontmatter(content string) (string, string, bool) {
	opening := frontmatterDelimiter + "\n"
	if !strings.HasPrefix(content, opening) {
		return "", "", false
	}

	rest := content[len(opening):]
	offset := 0
	for {
		end := strings.IndexByte(rest[offset:], '\n')
		line := rest[offset:]
		if end >= 0 {
			line = rest[offset : offset+end]
		}

		if line == frontmatterDelimiter {
			block := strings.TrimSuffix(rest[:offset], "\n")
			return block, rest[offset+len(frontmatterDelimiter):], true
		}

		if end < 0 {
			return "", "", false
		}
		offset += end + 1
	}
}
