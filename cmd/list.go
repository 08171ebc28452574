package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/restocompras/supplier-scraper/internal/source"
)

// newListCmd creates the 'list' subcommand, which prints the configured
// suppliers and their acquisition strategies.
func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists the configured suppliers",

		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			names := source.List(v)
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no suppliers configured")
				return nil
			}
			for _, name := range names {
				src, err := source.Load(v, name)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(invalid: %v)\n", name, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d target(s)\n",
					src.Name, src.Strategy, len(src.Targets()))
			}
			return nil
		},
	}
	return cmd
}
