// eyescheck runs a visual check over a screenshot file and prints the match request
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	"github.com/GriffinCanCode/eyes-go/internal/config"
)

const (
	appName    = "eyescheck"
	appVersion = "0.1.0"
)

// cfg is loaded once per invocation, before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Prepare screenshots for visual comparison",
	Long: `eyescheck normalises a captured screenshot for device pixel ratio and
builds the match request a visual comparison service expects.

Configuration is read from EYES_* environment variables and an optional .env file.`,
	Version:       appVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		level := cfg.SlogLevel()
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(checkCmd)
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s v%s\n", appName, appVersion))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logFailure(err)
		os.Exit(1)
	}
}

// logFailure logs err with the status code and reason a remote caller would see.
func logFailure(err error) {
	st := status.Convert(err)
	args := []any{"error", err, "grpc_code", st.Code().String()}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			args = append(args, "reason", info.GetReason())
		}
	}
	slog.Error("command failed", args...)
}
