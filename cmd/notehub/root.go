package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"notehub/internal/config"
	"notehub/internal/notehub"
	"notehub/internal/obs"
)

var (
	verbose bool
	apiURL  string
	token   string
	timeout time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notehub",
	Short: "Browse and create NoteHub notes from the terminal",
	Long: `notehub talks to the same notes API as the web UI.
Defaults come from NOTEHUB_API_URL and NOTEHUB_TOKEN (a .env file is read when present).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(obs.NewLogger(os.Stderr, level, "text"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal("notehub", err)
	}
}

func newClient() (*notehub.Client, error) {
	return notehub.New(notehub.Config{BaseURL: apiURL, Token: token, Timeout: timeout})
}

func init() {
	env := config.FromEnv()
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", env.APIBaseURL, "Notes API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", env.APIToken, "Bearer token for the notes API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", env.APITimeout, "Request timeout")
}
