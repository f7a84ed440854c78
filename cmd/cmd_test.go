package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blogModel = `
entities:
  User:
    columns:
      - {name: id, type: int, is_pk: true, nullable: false}
      - {name: email, type: varchar, max_length: 255, unique: true}
  Post:
    columns:
      - {name: id, type: int, is_pk: true, nullable: false}
      - {name: title, type: varchar}
      - {name: user_id, type: int, is_fk: true}
relationships:
  - {left: User, right: Post, type: "1:N", right_column: user_id}
`

type testEnv struct {
	t          *testing.T
	dir        string
	migrations string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	return &testEnv{t: t, dir: dir, migrations: filepath.Join(dir, "migrations")}
}

func (e *testEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--migrations-dir", e.migrations}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestMakeMigrations(t *testing.T) {
	env := newTestEnv(t)
	model := env.writeFile("blog.yaml", blogModel)

	out, err := env.run("makemigrations", "blog", model)
	require.NoError(t, err)
	assert.Equal(t, "Migrations for 'blog':\n  0001_initial.yaml\n", out)

	out, err = env.run("makemigrations", "blog", model)
	require.NoError(t, err)
	assert.Equal(t, "No changes detected.\n", out)

	changed := env.writeFile("blog.yaml", strings.Replace(blogModel,
		"- {name: title, type: varchar}",
		"- {name: title, type: varchar}\n      - {name: body, type: text}", 1))

	out, err = env.run("makemigrations", "blog", changed, "--dry-run")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Migrations for 'blog' (dry run):\n  0002_add_body.yaml\n\n"), out)
	assert.Contains(t, out, "type: AddColumn")
	assert.Contains(t, out, "- blog.0001_initial")
	assert.NoFileExists(t, filepath.Join(env.migrations, "blog", "0002_add_body.yaml"))

	out, err = env.run("makemigrations", "blog", changed, "--name", "Post body!")
	require.NoError(t, err)
	assert.Equal(t, "Migrations for 'blog':\n  0002_post_body.yaml\n", out)
	assert.FileExists(t, filepath.Join(env.migrations, "blog", "0002_post_body.yaml"))
}

func TestMakeMigrationsRequiresModel(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("makemigrations", "blog")
	assert.EqualError(t, err, "either a model file or --database-url is required")

	_, err = env.run("makemigrations")
	assert.Error(t, err)

	bad := env.writeFile("bad.toml", "[entities.A\n")
	_, err = env.run("makemigrations", "blog", bad)
	assert.ErrorContains(t, err, "invalid TOML")
}

func TestShowMigrations(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("showmigrations")
	require.NoError(t, err)
	assert.Equal(t, "No migrations found\n", out)

	out, err = env.run("showmigrations", "blog")
	require.NoError(t, err)
	assert.Equal(t, "No migrations found for namespace 'blog'\n", out)

	model := env.writeFile("blog.yaml", blogModel)
	_, err = env.run("makemigrations", "blog", model)
	require.NoError(t, err)
	_, err = env.run("makemigrations", "shop", model)
	require.NoError(t, err)

	out, err = env.run("showmigrations")
	require.NoError(t, err)
	assert.Equal(t, "blog:\n  [X] 0001_initial\nshop:\n  [X] 0001_initial\n", out)

	out, err = env.run("showmigrations", "shop")
	require.NoError(t, err)
	assert.Equal(t, "shop:\n  [X] 0001_initial\n", out)
}

func TestDiagram(t *testing.T) {
	env := newTestEnv(t)
	model := env.writeFile("blog.yaml", blogModel)
	_, err := env.run("makemigrations", "blog", model)
	require.NoError(t, err)

	out, err := env.run("diagram", "blog")
	require.NoError(t, err)
	assert.Contains(t, out, "erDiagram")
	assert.Contains(t, out, "    Post {\n")
	assert.Contains(t, out, `    Post }o--|| User : "user_id"`)

	file := filepath.Join(env.dir, "out", "blog.puml")
	out, err = env.run("diagram", "blog", "-f", "plantuml", "-o", file)
	require.NoError(t, err)
	assert.Equal(t, "Schema visualization generated: "+file+"\nFormat: plantuml\nEntities: 2\nRelationships: 1\n", out)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "@startuml\n"))

	_, err = env.run("diagram", "blog", "-f", "svg")
	assert.ErrorContains(t, err, "invalid format 'svg'")

	_, err = env.run("diagram")
	assert.EqualError(t, err, "either a namespace or --database-url is required")
}

func TestConfigFile(t *testing.T) {
	env := newTestEnv(t)
	model := env.writeFile("blog.yaml", blogModel)
	dir := filepath.Join(env.dir, "from-config")
	env.writeFile(".er-migrate.yaml", "migrations:\n  dir: "+dir+"\n")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"makemigrations", "blog", model})
	require.NoError(t, root.Execute())

	assert.FileExists(t, filepath.Join(dir, "blog", "0001_initial.yaml"))

	root = NewRootCmd()
	root.SetArgs([]string{"--config", filepath.Join(env.dir, "missing.yaml"), "showmigrations"})
	root.SetOut(&out)
	root.SetErr(&out)
	assert.ErrorContains(t, root.Execute(), "failed to read config")
}
