package generators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ermigrate/internal/schema"
)

func intPtr(v int) *int { return &v }

func blogModel() *schema.Model {
	return &schema.Model{
		Entities: []schema.Entity{
			{Name: "User", Columns: []schema.Column{
				{Name: "id", Type: "int", IsPK: true},
				{Name: "email", Type: "varchar", MaxLength: intPtr(255), Unique: true},
				{Name: "balance", Type: "decimal", Precision: intPtr(10), Scale: intPtr(2), Nullable: true},
			}},
			{Name: "blog-post", Columns: []schema.Column{
				{Name: "id", Type: "bigint", IsPK: true},
				{Name: "user_id", Type: "int", IsFK: true},
				{Name: "published", Type: "bool", Nullable: true},
			}},
		},
		Relationships: []schema.Relationship{
			{LeftEntity: "blog-post", RightEntity: "User", RelationType: schema.ManyToOne, LeftColumn: "user_id", RightColumn: "id"},
		},
	}
}

func TestRenderMermaid(t *testing.T) {
	out, err := Render(FormatMermaid, blogModel())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Database Schema Diagram\n\n```mermaid\nerDiagram\n"))
	assert.Contains(t, out, "    User {\n        int id PK\n        varchar(255) email UK\n        decimal(10,2) balance\n    }\n")
	assert.Contains(t, out, "    blog_post {\n")
	assert.Contains(t, out, "        int user_id FK\n")
	assert.Contains(t, out, "        boolean published\n")
	assert.Contains(t, out, `    blog_post }o--|| User : "user_id"`)
	assert.Contains(t, out, "Total Entities: 2\nTotal Relationships: 1\n")
}

func TestRenderPlantUML(t *testing.T) {
	out, err := Render(FormatPlantUML, blogModel())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "@startuml\n"))
	assert.True(t, strings.HasSuffix(out, "@enduml\n"))
	assert.Contains(t, out, "entity \"User\" as User {\n  * id : INTEGER <<PK>>\n  --\n")
	assert.Contains(t, out, "  email : VARCHAR(255) <<UNIQUE>> <<NOT NULL>>\n")
	assert.Contains(t, out, "  balance : DECIMAL(10,2)\n")
	assert.Contains(t, out, "entity \"blog-post\" as blog_post {\n  * id : BIGINT <<PK>>\n")
	assert.Contains(t, out, "  user_id : INTEGER <<FK>> <<NOT NULL>>\n")
	assert.Contains(t, out, "blog_post }o--|| User : user_id\n")
}

func TestRenderGraphviz(t *testing.T) {
	out, err := Render(FormatGraphviz, blogModel())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "digraph schema {\n"))
	assert.Contains(t, out, `  User [label="{User|+id: INT NOT NULL\lemail: VARCHAR(255) NOT NULL\lbalance: DECIMAL(10,2)\l}"];`)
	assert.Contains(t, out, `  blog_post [label="{blog-post|+id: BIGINT NOT NULL\luser_id: INT NOT NULL\lpublished: BOOL\l}"];`)
	assert.Contains(t, out, `  blog_post -> User [label="user_id", arrowhead=tee, arrowtail=crow, dir=both];`)
}

func TestRenderInvalidFormat(t *testing.T) {
	_, err := Render("svg", blogModel())
	assert.EqualError(t, err, "invalid format 'svg'. Valid formats: mermaid, plantuml, graphviz")
}

func TestCrowFootAndLabels(t *testing.T) {
	tests := []struct {
		rel       schema.Relationship
		wantFoot  string
		wantLabel string
	}{
		{schema.Relationship{RelationType: schema.OneToOne, LeftLabel: "owns"}, "||--||", "owns"},
		{schema.Relationship{RelationType: schema.OneToMany, RightLabel: "belongs to"}, "||--o{", "belongs to"},
		{schema.Relationship{RelationType: schema.ManyToMany, RightColumn: "tag_id"}, "}o--o{", "tag_id"},
		{schema.Relationship{RelationType: schema.ManyToOne}, "}o--||", schema.ManyToOne},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantFoot, crowFoot(tt.rel.RelationType))
		assert.Equal(t, tt.wantLabel, relationLabel(tt.rel))
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".md", Extension(FormatMermaid))
	assert.Equal(t, ".puml", Extension(FormatPlantUML))
	assert.Equal(t, ".dot", Extension(FormatGraphviz))
	assert.Empty(t, Extension("svg"))
}
