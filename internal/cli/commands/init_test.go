package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askql/internal/cli/config"
	"github.com/leapstack-labs/askql/internal/cli/output"
	clitest "github.com/leapstack-labs/askql/internal/cli/testutil"
)

func TestInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantFiles []string
		wantOut   []string
	}{
		{
			name:      "minimal",
			wantFiles: []string{"askql.yaml", ".gitignore"},
			wantOut:   []string{"## Configuration", "- [SUCCESS] askql.yaml", "askql project initialized!"},
		},
		{
			name:      "example",
			args:      []string{"--example"},
			wantFiles: []string{"askql.yaml", ".gitignore", "metadata/sflight.nt", "seeds/sflight.sql"},
			wantOut:   []string{"## Metadata", "## Seeds", "askql triples load metadata/sflight.nt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "project")

			out, _, err := runCommand(t, NewInitCommand(), append(tt.args, dir)...)
			require.NoError(t, err)

			for _, f := range tt.wantFiles {
				assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(f)))
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			clitest.AssertNoANSI(t, out)
		})
	}
}

func TestInitCommand_ExistingConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("target: {}\n"), 0600))

	_, _, err := runCommand(t, NewInitCommand(), dir)
	assert.EqualError(t, err, "askql.yaml already exists. Use --force to overwrite")

	_, _, err = runCommand(t, NewInitCommand(), "--force", dir)
	require.NoError(t, err)

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "default_schema: SFLIGHT")
}

func TestRunInit_JSON(t *testing.T) {
	dir := t.TempDir()
	buf := new(bytes.Buffer)

	r := output.NewRenderer(buf, buf, output.ModeJSON)
	require.NoError(t, runInit(r, dir, "minimal", false))

	var got struct {
		Directory string   `json:"directory"`
		Template  string   `json:"template"`
		Files     []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, dir, got.Directory)
	assert.Equal(t, "minimal", got.Template)
	assert.ElementsMatch(t, []string{"askql.yaml", ".gitignore"}, got.Files)
}

func TestGroupTemplateFiles(t *testing.T) {
	groups := groupTemplateFiles([]string{
		"askql.yaml",
		".gitignore",
		filepath.Join("metadata", "sflight.nt"),
		filepath.Join("seeds", "sflight.sql"),
	})

	assert.Equal(t, []string{"askql.yaml", ".gitignore"}, groups["config"])
	assert.Equal(t, []string{filepath.Join("metadata", "sflight.nt")}, groups["metadata"])
	assert.Equal(t, []string{filepath.Join("seeds", "sflight.sql")}, groups["seeds"])
}

// The example project seeds, loads and describes a working database.
func TestInitExample_SeedAndLoad(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCommand(t, NewInitCommand(), "--example", dir)
	require.NoError(t, err)

	clitest.Chdir(t, dir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err = config.LoadConfig("", nil)
	require.NoError(t, err)

	out, _, err := runCommand(t, NewSeedCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "- [SUCCESS] "+filepath.Join(dir, "seeds", "sflight.sql"))

	out, _, err = runCommand(t, NewTriplesCommand(), "load", "metadata/sflight.nt")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 88 triples (88 in store)")

	out, _, err = runCommand(t, NewDoctorCommand(), "--no-model")
	require.NoError(t, err)
	assert.Contains(t, out, "- [SUCCESS] Metadata (88 triples from store")
}
