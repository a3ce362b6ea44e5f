package dbtgen

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// renderSchemaDoc emits the models.yml fragment for the retained columns:
// a model header, a description line, and one entry per column. Each column
// entry carries a description built from the logical name and/or description
// (colon-joined when both are present) falling back to the column name, plus
// commented-out data_tests placeholders the user can enable by hand. Columns
// whose name contains "id" or "key" also get a commented unique test.
//
// Returns "" when no columns produced entries.
func renderSchemaDoc(cols []column, modelName, modelDescription string) string {
	if len(cols) == 0 {
		return ""
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("  - name: %s", modelName))

	desc := cleanText(modelDescription)
	if desc == "" {
		desc = modelName + "のテーブル定義"
	}
	lines = append(lines, fmt.Sprintf("    description: \"%s\"", desc))
	lines = append(lines, "    columns:")

	for _, c := range cols {
		lines = append(lines, fmt.Sprintf("      - name: %s", c.name))

		var parts []string
		if c.logical != "" {
			parts = append(parts, c.logical)
		}
		if c.desc != "" {
			parts = append(parts, c.desc)
		}
		text := cleanText(strings.Join(parts, ": "))
		if text == "" {
			text = c.name
		}
		lines = append(lines, fmt.Sprintf("        description: \"%s\"", text))

		// data_tests stay commented out so the user opts in per column.
		lines = append(lines, "        # data_tests:")
		lines = append(lines, "        #   - not_null")
		lower := strings.ToLower(c.name)
		if strings.Contains(lower, "id") || strings.Contains(lower, "key") {
			lines = append(lines, "        #   - unique")
		}
	}

	return strings.Join(lines, "\n")
}

// cleanText flattens free text for a double-quoted YAML scalar: newlines
// become spaces, runs of whitespace collapse to one space, and double quotes
// are escaped.
func cleanText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, `"`, `\"`)
}

// CheckYAML verifies that a generated schema fragment is well-formed YAML of
// the expected models.yml shape. The fragment is an indented list designed
// to sit under a "models:" key, so it is checked in that position.
func CheckYAML(fragment string) error {
	var doc struct {
		Models []struct {
			Name        string `yaml:"name"`
			Description string `yaml:"description"`
			Columns     []struct {
				Name        string `yaml:"name"`
				Description string `yaml:"description"`
			} `yaml:"columns"`
		} `yaml:"models"`
	}
	if err := yaml.Unmarshal([]byte("models:\n"+fragment), &doc); err != nil {
		return fmt.Errorf("dbtgen: generated fragment is not valid YAML: %w", err)
	}
	for _, m := range doc.Models {
		if m.Name == "" {
			return fmt.Errorf("dbtgen: generated fragment has a model without a name")
		}
	}
	return nil
}
