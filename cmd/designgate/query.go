package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wilhg/designgate/pkg/errmodel"
	"github.com/wilhg/designgate/pkg/gateway"
)

func newQueryCmd(c *cli) *cobra.Command {
	var operation string
	cmd := &cobra.Command{
		Use:   "query [topic...]",
		Short: "Run one operation and print the answer",
		Long: "Run one operation against the upstream catalog. The topic is taken from the\n" +
			"arguments, or read from stdin when none are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := gateway.Lookup(operation); !ok {
				return errmodel.Validation("not_found", "unknown operation", map[string]any{"operation": operation})
			}
			topic := strings.Join(args, " ")
			if topic == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter topic: ")
				var err error
				if topic, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			svc, err := c.start(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Topic: %s\n\n", topic)
			res := svc.ctr.Gateway().Query(cmd.Context(), operation, topic)
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&operation, "operation", "o", gateway.OpSearchDesignStandards, "operation to run")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
