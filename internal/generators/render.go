// Package generators renders ER models as diagram source text.
package generators

import (
	"fmt"
	"strings"

	"ermigrate/internal/schema"
)

const (
	FormatMermaid  = "mermaid"
	FormatPlantUML = "plantuml"
	FormatGraphviz = "graphviz"
)

// Formats lists the supported output formats.
var Formats = []string{FormatMermaid, FormatPlantUML, FormatGraphviz}

var extensions = map[string]string{
	FormatMermaid:  ".md",
	FormatPlantUML: ".puml",
	FormatGraphviz: ".dot",
}

// Extension returns the conventional file extension for format.
func Extension(format string) string {
	return extensions[format]
}

// Render renders m in the named format.
func Render(format string, m *schema.Model) (string, error) {
	switch format {
	case FormatMermaid:
		return GenerateMermaid(m), nil
	case FormatPlantUML:
		return GeneratePlantUML(m), nil
	case FormatGraphviz:
		return GenerateGraphviz(m), nil
	default:
		return "", fmt.Errorf("invalid format '%s'. Valid formats: %s", format, strings.Join(Formats, ", "))
	}
}

// crowFoot returns the crow's foot connector shared by Mermaid and PlantUML.
func crowFoot(relationType string) string {
	switch relationType {
	case schema.OneToOne:
		return "||--||"
	case schema.ManyToOne:
		return "}o--||"
	case schema.ManyToMany:
		return "}o--o{"
	default:
		return "||--o{"
	}
}

// relationLabel prefers the explicit label, then the joining column.
func relationLabel(r schema.Relationship) string {
	switch {
	case r.LeftLabel != "":
		return r.LeftLabel
	case r.RightLabel != "":
		return r.RightLabel
	case r.LeftColumn != "":
		return r.LeftColumn
	case r.RightColumn != "":
		return r.RightColumn
	default:
		return r.RelationType
	}
}

func cleanName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

// sizedType appends the length or precision and scale of textual and
// decimal columns to name.
func sizedType(col schema.Column, text, decimal string) (string, bool) {
	switch strings.ToLower(col.Type) {
	case "varchar", "text", "char", "string":
		if col.MaxLength != nil {
			return fmt.Sprintf("%s(%d)", text, *col.MaxLength), true
		}
		return text, true
	case "decimal", "numeric":
		if col.Precision != nil && col.Scale != nil {
			return fmt.Sprintf("%s(%d,%d)", decimal, *col.Precision, *col.Scale), true
		}
		return decimal, true
	}
	return "", false
}
