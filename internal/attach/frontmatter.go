package attach

import (
	"strings"

	"github.com/adrg/frontmatter"
)

// mdMeta holds the frontmatter fields an uploaded markdown file may carry.
type mdMeta struct {
	Title   string   `yaml:"title"`
	Tags    []string `yaml:"tags"`
	Project string   `yaml:"project"`
}

// applyFrontmatter parses YAML frontmatter from a markdown upload. Present
// fields override the filename-derived title and the declared project/tags;
// the body replaces the raw content so delimiters are not indexed. A file
// with no (or broken) frontmatter is left untouched.
func applyFrontmatter(up *Upload) {
	var meta mdMeta
	body, err := frontmatter.Parse(strings.NewReader(up.Content), &meta)
	if err != nil {
		return
	}

	up.Content = string(body)
	if meta.Title != "" {
		up.Title = meta.Title
	}
	if meta.Project != "" {
		up.Project = meta.Project
	}
	if len(meta.Tags) > 0 {
		up.Tags = strings.Join(meta.Tags, ",")
	}
}
