package admin

import (
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/panelsearch/internal/cli"
	"github.com/cloo-solutions/panelsearch/internal/database"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := cli.Bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Config.RequireDatabase(); err != nil {
				return err
			}
			source, _ := cmd.Flags().GetString("migrations")
			return database.Migrate(rt.Config.DatabaseURL, source, rt.Logger)
		},
	}
	cmd.Flags().String("migrations", database.DefaultMigrationsSource, "Migration source URL")
	return cmd
}
