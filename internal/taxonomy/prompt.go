package taxonomy

import (
	"encoding/json"
	"fmt"
	"strings"

	"docsort/internal/fingerprint"
)

// buildSynthesisPrompt renders the taxonomy generation prompt, embedding a
// JSON sample of the files to be organized and the nesting limit.
func buildSynthesisPrompt(records []fingerprint.FileRecord, maxDepth int) string {
	type fileSample struct {
		Name string `json:"name"`
		Ext  string `json:"ext"`
		Size int64  `json:"size"`
	}
	samples := make([]fileSample, 0, len(records))
	for _, rec := range records {
		samples = append(samples, fileSample{
			Name: rec.Name,
			Ext:  rec.Ext(),
			Size: rec.Size,
		})
	}
	encoded, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		encoded = []byte("[]")
	}

	var sb strings.Builder
	sb.WriteString("You are organizing a folder of documents into categories.\n")
	sb.WriteString("Below is a JSON list of the files to organize:\n\n")
	sb.Write(encoded)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Propose a category hierarchy for these files as a JSON object.\n")
	fmt.Fprintf(&sb, "Maximum category depth: %d.\n", maxDepth)
	sb.WriteString("Each key is a category name; each value is an object of subcategories\n")
	sb.WriteString("(use an empty object {} for leaf categories). Do not use lists or\n")
	sb.WriteString("strings as values. Respond with the JSON object only, no explanation.\n")
	return sb.String()
}
