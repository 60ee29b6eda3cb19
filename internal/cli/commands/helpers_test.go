package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askql/internal/cli/config"
	clitest "github.com/leapstack-labs/askql/internal/cli/testutil"
	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/testutil"
)

const (
	analysisTotalAA = "Tables: SBOOK\nColumns: SUM(LOCCURAM)\nFilters: CARRID = 'AA'\nJoins:\nGroupBy:"
	sqlTotalAA      = "SELECT SUM(LOCCURAM) AS SUM_LOCCURAM FROM SFLIGHT.SBOOK WHERE CARRID = 'AA';"
	answerTotalAA   = "Carrier AA booked 1500.50 in total."
)

// setupProject creates a test project, switches into it and loads its
// configuration. env entries are set before loading.
func setupProject(t *testing.T, env map[string]string) string {
	t.Helper()

	dir := clitest.SetupTestProject(t)
	clitest.Chdir(t, dir)

	t.Setenv("ANTHROPIC_API_KEY", "")
	for k, v := range env {
		t.Setenv(k, v)
	}

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return dir
}

// useModel makes every command use m instead of a real provider.
func useModel(t *testing.T, m llm.Model) {
	t.Helper()
	orig := newModel
	newModel = func(llm.Config, *slog.Logger) (llm.Model, error) { return m, nil }
	t.Cleanup(func() { newModel = orig })
}

// runCommand executes cmd with args and returns what it wrote.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := config.WithLogger(context.Background(), testutil.NewTestLogger(t))
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// seedAndLoad fills the project's database and triple store.
func seedAndLoad(t *testing.T) {
	t.Helper()
	_, _, err := runCommand(t, NewSeedCommand())
	require.NoError(t, err)
	_, _, err = runCommand(t, NewTriplesCommand(), "load", "metadata/sbook.nt")
	require.NoError(t, err)
}
