package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/panelsearch/internal/cli"
	"github.com/cloo-solutions/panelsearch/internal/cli/admin"
	"github.com/cloo-solutions/panelsearch/internal/cli/pipeline"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "panelsearch",
		Short: "Korean survey panel search",
		Long: "Analyze natural-language panel queries, chunk survey answers for embedding,\n" +
			"and serve panel search over HTTP.",
		SilenceUsage: true,
	}

	cli.AddHelpJSONFlag(rootCmd)
	cli.AddEnvFileFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.LoadCmd())
	rootCmd.AddCommand(admin.EmbedCmd())
	rootCmd.AddCommand(pipeline.ParseCmd())
	rootCmd.AddCommand(pipeline.ChunkCmd())

	if target, ok := cli.HelpJSONTarget(rootCmd, os.Args[1:]); ok {
		if err := cli.WriteSchema(os.Stdout, target); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
