package fixtures

import (
	"fmt"

	"github.com/spf13/cobra"

	cloudsdk "github.com/manishiitg/cloud-sdk-go"
	"github.com/manishiitg/cloud-sdk-go/internal/testing"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [transaction...]",
		Short: "List recorded transactions and their steps",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	logger := testing.GetTestLogger()
	store := openStore()
	matcher := newMatcher()

	names := args
	if len(names) == 0 {
		var err error
		names, err = store.List()
		if err != nil {
			return err
		}
	}
	logger.Debugf("%s: %d transactions in %s", cloudsdk.OperationList, len(names), store.BaseDir())

	out := cmd.OutOrStdout()
	for _, name := range names {
		tx, err := store.Open(name)
		if err != nil {
			return err
		}
		steps, err := tx.Steps()
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s (%d steps)\n", name, steps)
		for n := 1; n <= steps; n++ {
			req, resp, err := tx.Load(cmd.Context(), n)
			if err != nil {
				fmt.Fprintf(out, "  %3d  error: %v\n", n, err)
				continue
			}
			hash, err := matcher.Fingerprint(req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %3d  %-7s %s -> %d  %s\n", n, req.Method(), req.PathAndQuery(), resp.Status(), hash[:8])
		}
	}
	return nil
}
