// Command opl drives an OpenProject instance from the terminal and keeps
// the project-knowledge directory of weekly summaries and decision logs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"opline/internal/config"
	"opline/internal/exitcode"
	"opline/internal/openproject"
	"opline/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "opl",
	Short: "OpenProject CLI companion",
	Long: `opl talks to an OpenProject instance: listing and mutating work
packages, relations and wiki pages, and writing weekly status summaries
and decision log entries into the project-knowledge directory.

Configuration comes from opline.yml, ./.env and OPENPROJECT_* environment
variables; run "opl config show" to inspect the effective settings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitcode.Usagef("%v", err)
	})

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, ui.Errorf("error: %v", err))
		os.Exit(exitcode.From(err))
	}
}

func initConfig() {
	viper.SetEnvPrefix("OPENPROJECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("table", false, "render lists as tables")
	rootCmd.PersistentFlags().Bool("debug-json", false, "print raw API payloads to stderr")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringP("project", "p", "", "project id or identifier (overrides the configured default)")
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("table", rootCmd.PersistentFlags().Lookup("table"))
	_ = viper.BindPFlag("debug-json", rootCmd.PersistentFlags().Lookup("debug-json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(wpCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(typeCmd())
	rootCmd.AddCommand(priorityCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(relationCmd())
	rootCmd.AddCommand(wikiCmd())
	rootCmd.AddCommand(weeklyCmd())
	rootCmd.AddCommand(decisionCmd())
	rootCmd.AddCommand(configCmd())
}

// loadSettings assembles the layered configuration and applies the
// --project flag on top.
func loadSettings() (config.Settings, error) {
	s, err := config.Load(".")
	if err != nil {
		return s, err
	}
	if p := strings.TrimSpace(viper.GetString("project")); p != "" {
		s.DefaultProject = p
	}
	return s, nil
}

// requireProject returns the project reference for commands that need
// one.
func requireProject(s config.Settings) (string, error) {
	if s.DefaultProject == "" {
		return "", exitcode.Usagef("--project is required unless OPENPROJECT_DEFAULT_PROJECT is set.")
	}
	return s.DefaultProject, nil
}

// withClient builds the API client from the effective settings and runs
// fn with it.
func withClient(cmd *cobra.Command, fn func(context.Context, *openproject.Client, config.Settings) error) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	client, err := openproject.New(openproject.Config{
		BaseURL:   s.BaseURL,
		AuthMode:  s.AuthMode,
		Token:     s.APIToken,
		Username:  s.Username,
		Password:  s.Password,
		Timeout:   s.Timeout(),
		Logger:    newLogger(),
		DebugJSON: debugWriter(),
	})
	if err != nil {
		return err
	}
	return fn(cmd.Context(), client, s)
}

func newLogger() *slog.Logger {
	if viper.GetBool("verbose") {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func debugWriter() io.Writer {
	if viper.GetBool("debug-json") {
		return os.Stderr
	}
	return nil
}

// --- shared helpers ---

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonMode() bool { return viper.GetBool("json") }

func tableMode() bool { return viper.GetBool("table") }

func ensurePositiveLimit(limit int) error {
	if limit <= 0 {
		return exitcode.Usagef("--limit must be greater than 0.")
	}
	return nil
}

func ensureISODate(value, flag string) (string, error) {
	v := strings.TrimSpace(value)
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return "", exitcode.Usagef("%s must be in YYYY-MM-DD format.", flag)
	}
	return v, nil
}

// truncate shortens text for compact terminal rows.
func truncate(value string, max int) string {
	text := strings.TrimSpace(value)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}

// formatDate reduces an ISO timestamp to YYYY-MM-DD.
func formatDate(ts string) string {
	if ts == "" {
		return "-"
	}
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
