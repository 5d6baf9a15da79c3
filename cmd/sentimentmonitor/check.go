package main

import (
	"github.com/spf13/cobra"
)

var checkProbe bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and collaborators",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkProbe, "probe", false, "also run a one-page live search")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, _ := bootstrap(ctx)
	defer application.Close()

	printChecks(cmd.OutOrStdout(), application.Check(ctx, checkProbe))
	return nil
}
