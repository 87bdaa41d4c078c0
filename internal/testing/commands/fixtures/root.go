// Package fixtures implements the commands of the fixture inspection tool.
package fixtures

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manishiitg/cloud-sdk-go/internal/recorder"
	"github.com/manishiitg/cloud-sdk-go/internal/testing"
)

// NewRootCmd builds the fixtures command tree. Persistent flags are bound to
// viper, so they can also come from FIXTURES_* environment variables.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Inspect and verify recorded playback fixtures",
		Long: `Inspect and verify the request/response fixtures replayed by the playback transport.
Each transaction is a directory holding {n}_request.json and {n}_response.json pairs.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			testing.InitTestLogger(viper.GetString("log-file"), viper.GetString("log-level"))
		},
	}

	rootCmd.PersistentFlags().String("recordings-dir", recorder.DefaultBaseDir, "Directory containing recorded transactions")
	rootCmd.PersistentFlags().String("log-file", "", "Log file path (default: stdout)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (info or debug)")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Extra header names to ignore when comparing")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())

	viper.SetEnvPrefix("FIXTURES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newCompareCmd())
	return rootCmd
}

func openStore() *recorder.Store {
	return recorder.NewStore(recorder.Config{BaseDir: viper.GetString("recordings-dir")})
}

func newMatcher() *recorder.Matcher {
	return recorder.NewMatcher(viper.GetStringSlice("exclude")...)
}
