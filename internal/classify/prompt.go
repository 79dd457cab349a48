package classify

import (
	"fmt"
	"strings"

	"docsort/internal/fingerprint"
	"docsort/internal/taxonomy"
)

// buildClassifyPrompt renders the single-file classification prompt. The
// model is asked to complete a "Category:" line with exactly one of the
// listed category paths.
func buildClassifyPrompt(rec fingerprint.FileRecord, sample string, tax *taxonomy.Taxonomy) string {
	var sb strings.Builder
	sb.WriteString("Classify a file into exactly one of these categories:\n")
	for _, path := range tax.Paths() {
		sb.WriteString("- ")
		sb.WriteString(path.String())
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "File name: %s\n", rec.Name)
	fmt.Fprintf(&sb, "Extension: %s\n", rec.Ext())
	fmt.Fprintf(&sb, "Size: %d bytes\n", rec.Size)
	if sample != "" {
		fmt.Fprintf(&sb, "Content sample:\n%s\n", sample)
	}
	sb.WriteString("\nAnswer with the category only, exactly as listed above.\n")
	sb.WriteString("Category:")
	return sb.String()
}
