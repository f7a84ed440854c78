package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ermigrate/internal/schema"
)

// Format names an ER model file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported model file %q: expected .toml, .yaml, .yml or .json", path)
	}
}

// ParseFile reads, parses and validates the ER model at path.
func ParseFile(path string) (*schema.Model, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates an ER model.
func Parse(data []byte, format Format) (*schema.Model, error) {
	var (
		doc *document
		err error
	)
	switch format {
	case FormatTOML:
		doc, err = decodeTOML(data)
	case FormatYAML, FormatJSON:
		doc, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	m, err := doc.model()
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeTOML(data []byte) (*document, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}

	var templates, entities []string
	for _, key := range md.Keys() {
		if len(key) != 2 {
			continue
		}
		switch key[0] {
		case "templates":
			templates = append(templates, key[1])
		case "entities":
			entities = append(entities, key[1])
		}
	}
	doc.templateOrder = withRemaining(templates, doc.Templates)
	doc.entityOrder = withRemaining(entities, doc.Entities)
	return &doc, nil
}

func decodeYAML(data []byte) (*document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	var doc document
	if len(root.Content) == 0 {
		return &doc, nil
	}
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	top := root.Content[0]
	doc.templateOrder = withRemaining(mappingKeys(top, "templates"), doc.Templates)
	doc.entityOrder = withRemaining(mappingKeys(top, "entities"), doc.Entities)
	return &doc, nil
}

// mappingKeys returns the keys of the mapping stored under key, in order.
func mappingKeys(n *yaml.Node, key string) []string {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value != key {
			continue
		}
		v := n.Content[i+1]
		if v.Kind != yaml.MappingNode {
			return nil
		}
		keys := make([]string, 0, len(v.Content)/2)
		for j := 0; j < len(v.Content); j += 2 {
			keys = append(keys, v.Content[j].Value)
		}
		return keys
	}
	return nil
}

// withRemaining keeps the ordered names that exist in m and appends any
// names of m it missed, sorted.
func withRemaining[V any](ordered []string, m map[string]V) []string {
	seen := make(map[string]bool, len(m))
	var out []string
	for _, name := range ordered {
		if _, ok := m[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	var rest []string
	for name := range m {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
