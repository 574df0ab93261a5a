package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffetsong/md-tree-updater/internal/descriptions"
	"github.com/caffetsong/md-tree-updater/internal/document"
	"github.com/caffetsong/md-tree-updater/internal/pathfilter"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("root", "", "")
	fs.String("target", "", "")
	fs.String("descriptions", "", "")
	fs.String("ignore", "", "")
	fs.Bool("gitignore", false, "")
	fs.Bool("git-root", false, "")
	fs.String("log-level", "", "")
	return fs
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)

	require.ErrorIs(t, err, ErrConfigMissing)
	require.NotNil(t, cfg)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree-config.yaml")
	content := "target_file: docs/INDEX.md\nignore_file: .ignore\ngitignore: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "docs/INDEX.md", cfg.TargetFile)
	assert.Equal(t, ".ignore", cfg.IgnoreFile)
	assert.True(t, cfg.UseGitignore)
	assert.Equal(t, "tree-descriptions.yml", cfg.DescriptionsFile)
	assert.Equal(t, document.StartMarker, cfg.StartMarker)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree-config.yaml")
	content := "target_file: from-file.md\ndescriptions_file: file.yml\nlog_level: warn\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("MDTREE_TARGET_FILE", "from-env.md")
	t.Setenv("MDTREE_DESCRIPTIONS_FILE", "env.yml")

	flags := testFlags()
	require.NoError(t, flags.Set("target", "from-flag.md"))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag.md", cfg.TargetFile, "flag beats env")
	assert.Equal(t, "env.yml", cfg.DescriptionsFile, "env beats file")
	assert.Equal(t, "warn", cfg.LogLevel, "file beats default")
	assert.Equal(t, ".treeignore", cfg.IgnoreFile, "unchanged flag keeps default")
}

func TestLoad_EnvWithoutFile(t *testing.T) {
	t.Setenv("MDTREE_GIT_ROOT", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), testFlags())

	require.ErrorIs(t, err, ErrConfigMissing)
	assert.True(t, cfg.GitRoot)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: [unclosed\n"), 0o644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigMissing)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default is valid", func(*Config) {}, ""},
		{"empty target", func(c *Config) { c.TargetFile = " " }, "target_file"},
		{"empty root", func(c *Config) { c.Root = "" }, "root"},
		{"same markers", func(c *Config) { c.EndMarker = c.StartMarker }, "must differ"},
		{"start contains end", func(c *Config) {
			c.StartMarker = "<!-- A --><!-- B -->"
			c.EndMarker = "<!-- B -->"
		}, "must not contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("relative to working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		cfg, err := Default().Resolve()
		require.NoError(t, err)

		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, wd, cfg.Root)
		assert.Equal(t, filepath.Join(wd, "README.md"), cfg.TargetFile)
		assert.Equal(t, filepath.Join(wd, ".treeignore"), cfg.IgnoreFile)
	})

	t.Run("git root", func(t *testing.T) {
		repo := t.TempDir()
		_, err := git.PlainInit(repo, false)
		require.NoError(t, err)
		sub := filepath.Join(repo, "pkg", "inner")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		t.Chdir(sub)

		c := Default()
		c.GitRoot = true
		cfg, err := c.Resolve()
		require.NoError(t, err)

		want, err := filepath.EvalSymlinks(repo)
		require.NoError(t, err)
		got, err := filepath.EvalSymlinks(cfg.Root)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, filepath.Join(cfg.Root, "README.md"), cfg.TargetFile)
	})

	t.Run("absolute paths are kept", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "DOC.md")
		c := Default()
		c.TargetFile = abs
		cfg, err := c.Resolve()
		require.NoError(t, err)
		assert.Equal(t, abs, cfg.TargetFile)
	})
}

func TestScaffold(t *testing.T) {
	t.Run("fresh directory", func(t *testing.T) {
		dir := t.TempDir()

		result, err := Scaffold(dir, "")
		require.NoError(t, err)
		assert.Len(t, result.Created, 4)
		assert.Empty(t, result.Marked)

		readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(readme), "# My Project Documentation\n"))
		assert.True(t, document.DefaultMarkers().Has(string(readme)))

		cfg, err := Load(filepath.Join(dir, DefaultFile), nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)

		rules, err := pathfilter.Load(filepath.Join(dir, ".treeignore"))
		require.NoError(t, err)
		assert.True(t, rules.Shallow("node_modules"))
		assert.True(t, rules.Deep(".git"))

		doc, err := descriptions.NewStore(filepath.Join(dir, "tree-descriptions.yml")).Load()
		require.NoError(t, err)
		assert.Empty(t, doc.Mapping)
	})

	t.Run("existing files untouched", func(t *testing.T) {
		dir := t.TempDir()
		ignore := filepath.Join(dir, ".treeignore")
		require.NoError(t, os.WriteFile(ignore, []byte("custom\n"), 0o644))
		readme := filepath.Join(dir, "README.md")
		require.NoError(t, os.WriteFile(readme, []byte("# Mine\n"), 0o644))

		result, err := Scaffold(dir, "")
		require.NoError(t, err)
		assert.NotContains(t, result.Created, ignore)
		assert.Equal(t, []string{readme}, result.Marked)

		got, err := os.ReadFile(ignore)
		require.NoError(t, err)
		assert.Equal(t, "custom\n", string(got))

		doc, err := os.ReadFile(readme)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(doc), "# Mine\n"))
		assert.True(t, document.DefaultMarkers().Has(string(doc)))
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Scaffold(dir, "custom.yaml")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "custom.yaml"))

		result, err := Scaffold(dir, "custom.yaml")
		require.NoError(t, err)
		assert.Empty(t, result.Created)
		assert.Empty(t, result.Marked)
	})

	t.Run("unclosed start marker is reported", func(t *testing.T) {
		dir := t.TempDir()
		readme := filepath.Join(dir, "README.md")
		orphaned := document.EndMarker + "\nA\n" + document.StartMarker + "\nB\n"
		require.NoError(t, os.WriteFile(readme, []byte(orphaned), 0o644))

		result, err := Scaffold(dir, "")
		require.ErrorIs(t, err, document.ErrUnclosedMarker)
		assert.Empty(t, result.Marked)

		got, err := os.ReadFile(readme)
		require.NoError(t, err)
		assert.Equal(t, orphaned, string(got))
	})
}
