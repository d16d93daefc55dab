package cmd

import (
	"fmt"

	"github.com/internetarchive/parapipe/internal/pkg/utils"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the version number.",
		Run: func(cmd *cobra.Command, _ []string) {
			version := utils.GetVersion()

			fmt.Fprintln(cmd.OutOrStdout(), "parapipe", version.Version)
			fmt.Fprintln(cmd.OutOrStdout(), "- go/version:", version.GoVersion)
		},
	}

	versionCmd.AddCommand(&cobra.Command{
		Use:   "deps",
		Short: "Get dependencies.",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, dep := range utils.GetVersion().Deps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", dep.Path, dep.Version)
			}
		},
	})

	return versionCmd
}
