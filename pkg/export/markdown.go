package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
)

// now is swapped in tests for a stable header.
var now = time.Now

// GenerateMarkdown creates a markdown report of the category tree
func GenerateMarkdown(f *hierarchy.Forest, title string) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now().Format(time.RFC1123)))

	rows := Layout(f, nil)

	// Summary
	sb.WriteString("## Summary\n\n")
	roots, leaves, maxDepth, products := 0, 0, 0, 0
	for _, r := range rows {
		if r.Depth == 0 {
			roots++
			products += r.Category.TotalCount()
		}
		if !r.Expandable {
			leaves++
		}
		if r.Depth > maxDepth {
			maxDepth = r.Depth
		}
	}
	sb.WriteString(fmt.Sprintf("- **Categories**: %d\n", len(rows)))
	sb.WriteString(fmt.Sprintf("- **Top level**: %d\n", roots))
	sb.WriteString(fmt.Sprintf("- **Leaves**: %d\n", leaves))
	if len(rows) > 0 {
		sb.WriteString(fmt.Sprintf("- **Depth**: %d\n", maxDepth+1))
	}
	sb.WriteString(fmt.Sprintf("- **Products**: %d\n\n", products))

	if len(rows) == 0 {
		sb.WriteString("_No categories._\n")
		return sb.String(), nil
	}

	// Outline as a nested list
	sb.WriteString("## Outline\n\n")
	for _, r := range rows {
		sb.WriteString(strings.Repeat("  ", r.Depth))
		sb.WriteString("- ")
		sb.WriteString(escapeMarkdown(r.Category.Name))
		if n := r.Category.DirectCount(); n > 0 {
			sb.WriteString(fmt.Sprintf(" `%d`", n))
		}
		if r.Category.ShowTotalBadge() {
			sb.WriteString(fmt.Sprintf(" `Σ %d`", r.Category.TotalCount()))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// Plain tree for terminals and code review
	sb.WriteString("## Tree\n\n```text\n")
	for _, r := range rows {
		sb.WriteString(r.Prefix() + r.Label() + "\n")
	}
	sb.WriteString("```\n\n")

	// Table
	sb.WriteString("## Categories\n\n")
	sb.WriteString("| ID | Path | Products | Total | Children |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, r := range rows {
		path := strings.Join(f.Path(r.Category.ID), " / ")
		sb.WriteString(fmt.Sprintf("| %d | %s | %d | %d | %d |\n",
			r.Category.ID, strings.ReplaceAll(path, "|", "\\|"),
			r.Category.DirectCount(), r.Category.TotalCount(), len(f.Children(r.Category.ID))))
	}

	return sb.String(), nil
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "[", "\\[", "]", "\\]")
	return r.Replace(s)
}

// SaveMarkdownToFile writes the generated markdown to a file
func SaveMarkdownToFile(f *hierarchy.Forest, title, filename string) error {
	content, err := GenerateMarkdown(f, title)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
