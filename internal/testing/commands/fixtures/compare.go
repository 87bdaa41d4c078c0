package fixtures

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cloudsdk "github.com/manishiitg/cloud-sdk-go"
	"github.com/manishiitg/cloud-sdk-go/internal/recorder"
	"github.com/manishiitg/cloud-sdk-go/internal/testing"
)

type compareFlags struct {
	transaction string
	step        int
	request     string
}

func newCompareCmd() *cobra.Command {
	var flags compareFlags
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a request fixture file against a recorded step",
		Long: `Compare a request (in fixture JSON form) against the recorded request of a step,
using the same rules as playback. Prints the first mismatch, if any.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.transaction, "transaction", "", "Transaction name")
	cmd.Flags().IntVar(&flags.step, "step", 1, "Step number to compare against")
	cmd.Flags().StringVar(&flags.request, "request", "", "Path to the request JSON file")
	_ = cmd.MarkFlagRequired("transaction")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func runCompare(cmd *cobra.Command, flags compareFlags) error {
	logger := testing.GetTestLogger()

	data, err := os.ReadFile(flags.request)
	if err != nil {
		return fmt.Errorf("failed to read request file: %w", err)
	}
	live, err := recorder.DecodeRequest(flags.request, data)
	if err != nil {
		return err
	}

	tx, err := openStore().Open(flags.transaction)
	if err != nil {
		return err
	}
	expected, _, err := tx.Load(cmd.Context(), flags.step)
	if err != nil {
		return err
	}

	logger.Debugf("%s: %s step %d", cloudsdk.OperationCompare, flags.transaction, flags.step)
	err = newMatcher().Compare(live, expected)

	var mismatch *recorder.MismatchError
	switch {
	case err == nil:
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s step %d: requests match\n", flags.transaction, flags.step)
		return nil
	case errors.As(err, &mismatch):
		fmt.Fprintf(cmd.OutOrStdout(), "❌ %s step %d: %s (%s)\n", flags.transaction, flags.step, mismatch.Message, mismatch.Kind)
		return err
	default:
		return err
	}
}
