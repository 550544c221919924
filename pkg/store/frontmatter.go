package store

import (
	"fmt"
	"strings"
)

const frontmatterDelimiter = "---"

// SplitFrontmatter separates a Markdown document into its YAML frontmatter
// and body. Content without frontmatter is returned as YAML with no body,
// so plain YAML plan files pass through unchanged. The returned offset is
// the number of lines preceding the YAML, for error locations.
func SplitFrontmatter(content string) (yamlText, body string, offset int, err error) {
	trimmed := strings.TrimLeft(content, "\n")
	lead := strings.Count(content[:len(content)-len(trimmed)], "\n")

	if !strings.HasPrefix(trimmed, frontmatterDelimiter+"\n") {
		return content, "", 0, nil
	}

	rest := trimmed[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx == -1 {
		return "", "", 0, fmt.Errorf("unclosed frontmatter delimiter")
	}

	yamlText = rest[:idx]
	body = rest[idx+len("\n"+frontmatterDelimiter):]
	body = strings.TrimLeft(body, "\n")
	return yamlText, body, lead, nil
}
