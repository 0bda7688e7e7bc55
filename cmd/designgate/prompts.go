package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wilhg/designgate/pkg/eval"
	"github.com/wilhg/designgate/pkg/prompt"
)

func newCheckPromptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-prompts <fixtures-dir>",
		Short: "Render every operation fixture and compare against its expectations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := eval.EvaluateOperations(os.DirFS(args[0]), ".", prompt.Default())
			if err != nil {
				return err
			}
			for _, d := range rep.Details {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d fixtures passed\n", rep.Passed, rep.Total)
			if rep.Passed != rep.Total {
				return fmt.Errorf("%d prompt fixtures failed", rep.Total-rep.Passed)
			}
			return nil
		},
	}
}
