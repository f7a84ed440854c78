package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ermigrate/internal/schema"
)

const blogTOML = `
[templates.base]
columns = [
  { name = "id", type = "int", is_pk = true, nullable = false },
  { name = "created_at", type = "timestamp" },
]

[templates.audited]
columns = [
  { name = "created_at", type = "timestamptz", nullable = false },
  { name = "updated_by", type = "varchar", max_length = 64 },
]

[entities.User]
extends = ["base", "audited"]
comment = "registered users"
columns = [
  { name = "email", type = "varchar", max_length = 255, unique = true, nullable = false },
  { name = "id", type = "bigint", is_pk = true, nullable = false },
]

[entities.Post]
extends = ["base"]
columns = [
  { name = "title", type = "varchar", indexed = true, default = "untitled" },
  { name = "price", type = "decimal", precision = 10, scale = 2, default = 0 },
  { name = "author_id", type = "bigint", is_fk = true },
]

[[relationships]]
left = "Post"
right = "User"
type = "N:1"
left_column = "author_id"
right_column = "id"
left_label = "written by"
`

func ptr[T any](v T) *T { return &v }

func TestParseTOML(t *testing.T) {
	m, err := Parse([]byte(blogTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := &schema.Model{
		Entities: []schema.Entity{
			{
				Name:    "User",
				Comment: "registered users",
				Columns: []schema.Column{
					{Name: "id", Type: "bigint", IsPK: true},
					{Name: "created_at", Type: "timestamptz"},
					{Name: "updated_by", Type: "varchar", MaxLength: ptr(64), Nullable: true},
					{Name: "email", Type: "varchar", MaxLength: ptr(255), Unique: true},
				},
			},
			{
				Name: "Post",
				Columns: []schema.Column{
					{Name: "id", Type: "int", IsPK: true},
					{Name: "created_at", Type: "timestamp", Nullable: true},
					{Name: "title", Type: "varchar", Indexed: true, Nullable: true, Default: ptr("untitled")},
					{Name: "price", Type: "decimal", Precision: ptr(10), Scale: ptr(2), Nullable: true, Default: ptr("0")},
					{Name: "author_id", Type: "bigint", IsFK: true, Nullable: true},
				},
			},
		},
		Relationships: []schema.Relationship{
			{LeftEntity: "Post", RightEntity: "User", RelationType: schema.ManyToOne, LeftColumn: "author_id", RightColumn: "id", LeftLabel: "written by"},
		},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseYAMLAndJSON(t *testing.T) {
	yamlDoc := `
entities:
  Tag:
    columns:
      - {name: id, type: int, is_pk: true, nullable: false}
      - {name: label, type: varchar}
  Article:
    columns:
      - {name: id, type: int, is_pk: true, nullable: false}
relationships:
  - {left: Article, right: Tag, type: "N:M"}
`
	jsonDoc := `{
  "entities": {
    "Tag": {"columns": [{"name": "id", "type": "int", "is_pk": true, "nullable": false}, {"name": "label", "type": "varchar"}]},
    "Article": {"columns": [{"name": "id", "type": "int", "is_pk": true, "nullable": false}]}
  },
  "relationships": [{"left": "Article", "right": "Tag", "type": "many-to-many"}]
}`

	want := &schema.Model{
		Entities: []schema.Entity{
			{Name: "Tag", Columns: []schema.Column{
				{Name: "id", Type: "int", IsPK: true},
				{Name: "label", Type: "varchar", Nullable: true},
			}},
			{Name: "Article", Columns: []schema.Column{
				{Name: "id", Type: "int", IsPK: true},
			}},
		},
		Relationships: []schema.Relationship{
			{LeftEntity: "Article", RightEntity: "Tag", RelationType: schema.ManyToMany},
		},
	}

	for format, doc := range map[Format]string{FormatYAML: yamlDoc, FormatJSON: jsonDoc} {
		t.Run(string(format), func(t *testing.T) {
			m, err := Parse([]byte(doc), format)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(want, m); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "unknown template",
			doc:     "[entities.User]\nextends = [\"missing\"]\n",
			wantErr: `extends unknown template "missing"`,
		},
		{
			name:    "unknown relationship type",
			doc:     "[entities.A]\n[entities.B]\n[[relationships]]\nleft = \"A\"\nright = \"B\"\ntype = \"1:many\"\n",
			wantErr: `unknown relationship type "1:many"`,
		},
		{
			name:    "column without type",
			doc:     "[entities.A]\ncolumns = [{ name = \"id\" }]\n",
			wantErr: `column "id" has no type`,
		},
		{
			name:    "relationship to unknown entity",
			doc:     "[entities.A]\n[[relationships]]\nleft = \"A\"\nright = \"Ghost\"\ntype = \"1:N\"\n",
			wantErr: `unknown entity "Ghost"`,
		},
		{
			name:    "invalid TOML",
			doc:     "[entities.A\n",
			wantErr: "invalid TOML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatTOML)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseValidationError(t *testing.T) {
	_, err := Parse([]byte("[entities.A]\n[[relationships]]\nleft = \"A\"\nright = \"B\"\ntype = \"1:1\"\n"), FormatTOML)

	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Parse() error = %v, want *schema.ValidationError", err)
	}
	if len(verr.Problems) != 1 {
		t.Errorf("Problems = %v, want one", verr.Problems)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "blog.toml")
	if err := os.WriteFile(path, []byte(blogTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(m.Entities) != 2 {
		t.Errorf("len(Entities) = %d, want 2", len(m.Entities))
	}

	if _, err := ParseFile(filepath.Join(dir, "model.mmd")); err == nil {
		t.Error("ParseFile() accepted an unsupported extension")
	}
	if _, err := ParseFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("ParseFile() accepted a missing file")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.toml": FormatTOML,
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.json": FormatJSON,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		if err != nil || got != want {
			t.Errorf("DetectFormat(%q) = %q, %v, want %q", path, got, err, want)
		}
	}
}
