package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/quicktrans/internal"
	"codeberg.org/snonux/quicktrans/internal/translation"
)

// Runner carries out the commands
type Runner interface {
	// Run translates args, the batch file or stdin, or opens the GUI
	Run(ctx context.Context, cmd *cobra.Command, args []string) error
	ListHistory(w io.Writer) error
	ClearHistory() error
	ExportHistory(path string) error
	ArchiveHistory(w io.Writer) error
	ShowConfig(w io.Writer) error
	SetConfig(key, value string) error
	ResetURL() error
	Swap(w io.Writer) error
	ListModels(ctx context.Context, w io.Writer) error
}

// ConfigKeys are the settings accepted by "config set"
var ConfigKeys = []string{"api-url", "api-key", "model", "temperature", "stream"}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, runner Runner) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quicktrans [text]",
		Short: "Streaming translator for OpenAI-compatible endpoints",
		Long: `quicktrans translates text with any OpenAI-compatible chat completion
endpoint and streams the result as it arrives.

Examples:
  quicktrans                              # Launch interactive GUI (default)
  quicktrans --to de "Good morning"       # Translate via CLI
  echo "Bonjour" | quicktrans --to en     # Translate stdin
  quicktrans --batch texts.txt            # Translate every line of a file
  quicktrans history list                 # Show recent translations`,
		Args:          cobra.ArbitraryArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Run(cmd.Context(), cmd, args)
		},
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newHistoryCmd(flags, runner),
		newConfigCmd(runner),
		newSwapCmd(runner),
		newModelsCmd(runner),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.quicktrans.yaml)")
	cmd.PersistentFlags().StringVar(&flags.DBPath, "db", flags.DBPath, "State database holding settings and history")
	cmd.PersistentFlags().StringVar(&flags.APIURL, "api-url", "", "Endpoint base URL for this run (overrides the saved setting)")
	cmd.PersistentFlags().StringVarP(&flags.Model, "model", "m", "", "Model for this run (overrides the saved setting)")
	cmd.PersistentFlags().StringVar(&flags.UILang, "lang", "", "Interface language, e.g. zh_CN (default: from environment)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log request details to stderr")

	// Local flags
	cmd.Flags().StringVarP(&flags.From, "from", "f", "", "Source language code or Auto (default: last used)")
	cmd.Flags().StringVarP(&flags.To, "to", "t", "", "Target language code (default: last used)")
	cmd.Flags().Float64Var(&flags.Temperature, "temperature", flags.Temperature, "Sampling temperature (0 to 2)")
	cmd.Flags().BoolVar(&flags.NoStream, "no-stream", false, "Wait for the complete translation instead of streaming")
	cmd.Flags().BoolVar(&flags.HTML, "html", false, "Print the translation rendered as HTML")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Only print the translation")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Translate texts from file (one per line)")
	cmd.Flags().BoolVar(&flags.GUIMode, "gui", false, "Launch the GUI even when text is given")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("api.url", cmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("api.model", cmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("api.temperature", cmd.Flags().Lookup("temperature"))
	viper.BindPFlag("storage.path", cmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("ui.language", cmd.PersistentFlags().Lookup("lang"))
}

func newHistoryCmd(flags *Flags, runner Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Show, export, archive or clear the translation history",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent translations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.ListHistory(cmd.OutOrStdout())
		},
	}
	list.Flags().IntVarP(&flags.Limit, "limit", "n", 0, "Show at most this many entries (0 for all)")

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.Yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			return runner.ClearHistory()
		},
	}
	clear.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Confirm clearing the history")

	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the history as JSON, YAML or HTML (chosen by extension)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.ExportHistory(args[0])
		},
	}

	archive := &cobra.Command{
		Use:   "archive",
		Short: "Move the history into a timestamped file under the state directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.ArchiveHistory(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(list, clear, export, archive)
	return cmd
}

func newConfigCmd(runner Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the saved translation settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved settings (the API key is masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.ShowConfig(cmd.OutOrStdout())
		},
	}

	set := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting: " + strings.Join(ConfigKeys, ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: ConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isConfigKey(args[0]) {
				return fmt.Errorf("unknown setting %q (valid: %s)", args[0], strings.Join(ConfigKeys, ", "))
			}
			return runner.SetConfig(args[0], args[1])
		},
	}

	resetURL := &cobra.Command{
		Use:   "reset-url",
		Short: "Restore the default endpoint URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.ResetURL()
		},
	}

	cmd.AddCommand(show, set, resetURL)
	return cmd
}

func newSwapCmd(runner Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "swap",
		Short: "Swap the remembered source and target languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Swap(cmd.OutOrStdout())
		},
	}
}

func newModelsCmd(runner Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List chat models offered by the configured endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.ListModels(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func isConfigKey(key string) bool {
	for _, k := range ConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".quicktrans" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".quicktrans")
	}

	viper.SetEnvPrefix("QUICKTRANS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetAPIKey retrieves the API key from environment or config file. It is
// the fallback when no key has been saved in the settings.
func GetAPIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("api.key")
}

// GetBreakerSettings reads breaker.max_failures and breaker.cooldown
func GetBreakerSettings() translation.BreakerSettings {
	settings := translation.DefaultBreakerSettings()
	if viper.IsSet("breaker.max_failures") {
		if n := viper.GetInt("breaker.max_failures"); n >= 0 {
			settings.MaxFailures = uint32(n)
		}
	}
	if viper.IsSet("breaker.cooldown") {
		if d := viper.GetDuration("breaker.cooldown"); d > 0 {
			settings.Cooldown = d
		}
	}
	return settings
}
