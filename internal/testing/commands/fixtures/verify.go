package fixtures

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	cloudsdk "github.com/manishiitg/cloud-sdk-go"
	"github.com/manishiitg/cloud-sdk-go/internal/recorder"
	"github.com/manishiitg/cloud-sdk-go/internal/testing"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [transaction...]",
		Short: "Check that every fixture parses and steps are numbered 1..N without gaps",
		RunE:  runVerify,
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	logger := testing.GetTestLogger()
	store := openStore()

	names := args
	if len(names) == 0 {
		var err error
		names, err = store.List()
		if err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no recorded transactions found in %s", store.BaseDir())
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, name := range names {
		problems := VerifyTransaction(cmd.Context(), store, name)
		if len(problems) == 0 {
			fmt.Fprintf(out, "✅ %s\n", name)
			continue
		}
		failed++
		fmt.Fprintf(out, "❌ %s\n", name)
		for _, p := range problems {
			fmt.Fprintf(out, "   - %s\n", p)
		}
	}

	logger.Infof("%s: %d transactions, %d with problems", cloudsdk.OperationVerify, len(names), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d transactions have problems", failed, len(names))
	}
	return nil
}

// VerifyTransaction returns every problem found in a transaction directory:
// unexpected files, unpaired fixtures, gaps in the numbering and fixtures
// that do not parse.
func VerifyTransaction(ctx context.Context, store *recorder.Store, name string) []string {
	files, err := store.Files(name)
	if err != nil {
		return []string{err.Error()}
	}

	var problems []string
	kinds := map[int]map[string]bool{}
	for _, f := range files {
		n, kind, ok := recorder.ParseStepFile(f)
		if !ok {
			problems = append(problems, fmt.Sprintf("unexpected file %s", f))
			continue
		}
		if kinds[n] == nil {
			kinds[n] = map[string]bool{}
		}
		kinds[n][kind] = true
	}

	steps := make([]int, 0, len(kinds))
	for n := range kinds {
		steps = append(steps, n)
	}
	sort.Ints(steps)

	for i, n := range steps {
		if n != i+1 {
			problems = append(problems, fmt.Sprintf("step %d missing (found step %d)", i+1, n))
			break
		}
	}

	tx, err := store.Open(name)
	if err != nil {
		return append(problems, err.Error())
	}
	for _, n := range steps {
		if !kinds[n]["request"] {
			problems = append(problems, fmt.Sprintf("step %d has no request fixture", n))
			continue
		}
		if !kinds[n]["response"] {
			problems = append(problems, fmt.Sprintf("step %d has no response fixture", n))
			continue
		}
		if _, _, err := tx.Load(ctx, n); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return problems
}
