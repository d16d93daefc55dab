// Package cmd holds the command line interface of parapipe.
package cmd

import (
	"fmt"
	"os"

	"github.com/internetarchive/parapipe/internal/pkg/config"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "parapipe -n WORKERS -c \"CMD [ARGS...] -> CMD [ARGS...]\"",
	Short: "Run N parallel copies of a command pipeline over a shared input",
	Long: `parapipe builds a pipeline of commands separated by "->" and runs N
independent copies of it. Input lines are distributed to the copies and
everything the copies print is multiplexed onto a single output.

Example:
  parapipe -n 4 -c "grep foo -> sort" < input.txt > output.txt
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize config here, after cobra has parsed command line flags
		if err := config.InitConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "error initializing config: %s\n", err)
			os.Exit(1)
		}

		cfg = config.Get()
	},
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if cfg == nil {
			return fmt.Errorf("viper config is nil")
		}

		return config.GenerateRunConfig()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

// Run the root command
func Run() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootFlags(rootCmd)

	// Bind flags to viper
	config.BindFlags(rootCmd.PersistentFlags())
	config.BindFlags(rootCmd.Flags())

	rootCmd.AddCommand(versionCmd())

	return rootCmd.Execute()
}

func rootFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("config-file", "", "config file (default is $HOME/parapipe-config.yaml)")

	// Pipeline flags
	rootCmd.Flags().IntP("workers", "n", 1, "Number of parallel pipeline instances to run.")
	rootCmd.Flags().StringP("command", "c", "", "Pipeline to run, stages are separated by \"->\". E.g. \"grep foo -> sort\"")
	rootCmd.Flags().String("input", "", "File to read the input lines from. (default is stdin)")
	rootCmd.Flags().String("output", "", "File to write the pipelines output to. (default is stdout)")
	rootCmd.Flags().String("input-policy", "race", "How input lines are distributed to the pipelines: race, round-robin, broadcast or hash.")
	rootCmd.Flags().String("exit-policy", "orchestration", "When the run fails: orchestration (only when a pipeline can't run) or stages (also when a stage exits non-zero).")
	rootCmd.Flags().Int("max-stages", 32, "Maximum number of stages in a pipeline.")
	rootCmd.Flags().Int("collector-buffer-size", 32*1024, "Size in bytes of the buffer used to read the output of each pipeline.")
	rootCmd.Flags().String("job", "", "Job name, used in logs, metrics and to name the log files directory. (default is a random UUID)")

	// Logging flags
	rootCmd.Flags().String("log-level", "info", "stderr log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("no-stderr-log", false, "Disable logging to stderr.")
	rootCmd.Flags().Bool("no-color-log", false, "Disable colors in stderr logs.")
	rootCmd.Flags().Bool("no-log-file", true, "Disable logging to a file.")
	rootCmd.Flags().String("log-file-level", "info", "Log file log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-file-output-dir", "", "Directory to write log files to. (default is jobs/<job>/logs)")
	rootCmd.Flags().String("log-file-prefix", "parapipe", "Prefix of the log files names.")
	rootCmd.Flags().String("log-file-rotation", "6h", "How often the log file is rotated.")
	rootCmd.Flags().Bool("live-stats", false, "Enable live stats on stderr but disable logging. (implies --no-stderr-log)")

	// API and metrics flags
	rootCmd.Flags().Bool("api", false, "Enable API")
	rootCmd.Flags().Int("api-port", 9443, "Port to listen on for the API.")
	rootCmd.Flags().Bool("prometheus", false, "Export metrics in Prometheus format. (implies --api)")
	rootCmd.Flags().String("prometheus-prefix", "parapipe_", "String used as a prefix for the exported Prometheus metrics.")
}
