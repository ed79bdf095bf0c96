package admin

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/panelsearch/internal/cli"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	root := &cobra.Command{Use: "panelsearch", SilenceUsage: true, SilenceErrors: true}
	cli.AddEnvFileFlag(root)
	root.AddCommand(cmd)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{cmd.Name()}, args...))
	return root.Execute()
}

func TestMigrateCmd_RequiresDatabase(t *testing.T) {
	t.Setenv("PANEL_DATABASE_URL", "")

	err := execute(t, MigrateCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PANEL_DATABASE_URL")
}

func TestLoadCmd_RequiresDatabase(t *testing.T) {
	t.Setenv("PANEL_DATABASE_URL", "")

	err := execute(t, LoadCmd(), "answers_overlap.jsonl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PANEL_DATABASE_URL")
}

func TestLoadCmd_RequiresFiles(t *testing.T) {
	assert.Error(t, execute(t, LoadCmd()))
}

func TestEmbedCmd_RequiresOpenAI(t *testing.T) {
	t.Setenv("PANEL_OPENAI_API_KEY", "")

	err := execute(t, EmbedCmd(), "--once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PANEL_OPENAI_API_KEY")
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := ServeCmd()

	for _, name := range []string{"port", "no-migrate", "no-worker", "migrations"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "p", cmd.Flags().Lookup("port").Shorthand)
}

func TestCommands_BadEnvFile(t *testing.T) {
	err := execute(t, MigrateCmd(), "--env-file", "/nonexistent/panel.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
