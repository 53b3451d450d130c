package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/theakshaypant/caldigest/internal/adapter/google"
	"github.com/theakshaypant/caldigest/internal/adapter/ics"
	"github.com/theakshaypant/caldigest/internal/adapter/outlook"
	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/digest"
	"github.com/theakshaypant/caldigest/internal/logger"
	"github.com/theakshaypant/caldigest/internal/mail"
	"github.com/theakshaypant/caldigest/internal/store"
)

// CalendarAdapter extends core.Provider with calendar listing.
// The Google, Outlook and ICS adapters implement this interface.
type CalendarAdapter interface {
	core.Provider
	Calendars(ctx context.Context) ([]core.Calendar, error)
}

var (
	cfgFile string
	profile string

	cfg *config.Config
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "caldigest",
	Short: "Turn a calendar into a day-by-day digest",
	Long: `caldigest reads events from Google Calendar, Outlook or an ICS feed for a
date range, groups them by day into one-time and ongoing events, saves the
result as JSON and can email a summary.

Date ranges:
  caldigest                                  current week (Monday to Sunday)
  caldigest -r "next week"
  caldigest -r "this month" | "next month"
  caldigest -r "august 2024" | "aug 2024" | "2024-08"
  caldigest -r "2024-08-01 to 2024-08-04"`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: func(*cobra.Command, []string) error { _ = log.Sync(); return nil },
	RunE:               runDigest,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/caldigest/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "config profile to use (e.g., library, work)")
	rootCmd.PersistentFlags().String("provider", "", "Calendar provider: google, outlook or ics")
	rootCmd.PersistentFlags().StringP("calendar", "c", "", "Calendar name (default: the primary calendar)")
	rootCmd.PersistentFlags().String("ics-url", "", "ICS feed URL or file path (provider ics)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Snapshot JSON file")
	rootCmd.PersistentFlags().Bool("html-cleaning", false, "Strip HTML from event descriptions")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	// Run flags
	rootCmd.PersistentFlags().StringP("range", "r", "", "Date range (default: current week)")
	rootCmd.PersistentFlags().Bool("send-email", false, "Email the summary after saving it")
	rootCmd.PersistentFlags().Bool("fallback-week", false, "Use the current week when --range cannot be parsed")

	bindFlags(viper.GetViper())
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"provider":             "provider",
	"calendar":             "calendar",
	"ics_url":              "ics-url",
	"output_json_file":     "output",
	"enable_html_cleaning": "html-cleaning",
	"log.level":            "log-level",
	"range":                "range",
	"send_email":           "send-email",
	"fallback_week":        "fallback-week",
}

// bindFlags ties each key in flagKeys to its root flag.
func bindFlags(v *viper.Viper) {
	for key, flag := range flagKeys {
		_ = v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: could not load .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "caldigest"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	cobra.CheckErr(config.BindEnv(viper.GetViper()))
	config.SetDefaults(viper.GetViper())

	// Read config file if it exists
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	applyProfile()
}

// profileKeys lists the settings a profile may override.
var profileKeys = []string{
	"provider",
	"calendar",
	"credentials_file",
	"token_file",
	"client_id",
	"tenant_id",
	"ics_url",
	"output_json_file",
	"max_results",
	"enable_html_cleaning",
	"reporting_offset",
	"range",
	"send_email",
	"schedule",
	"smtp.host",
	"smtp.port",
	"smtp.username",
	"smtp.password",
	"smtp.from",
	"smtp.to",
	"log.level",
	"log.format",
}

// applyProfile merges profile-specific settings over top-level ones
func applyProfile() {
	activeProfile := profile
	if activeProfile == "" {
		activeProfile = viper.GetString("default_profile")
	}
	if activeProfile == "" {
		return
	}

	profileKey := "profiles." + activeProfile
	if !viper.IsSet(profileKey) {
		fmt.Fprintf(os.Stderr, "Warning: profile '%s' not found in config\n", activeProfile)
		return
	}

	fmt.Fprintf(os.Stderr, "Using profile: %s\n", activeProfile)

	// A flag given on the command line beats the profile.
	for _, key := range profileKeys {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) && !isFlagExplicitlySet(key) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}
}

func isFlagExplicitlySet(viperKey string) bool {
	if viperKey == "schedule" {
		f := scheduleCmd.Flags().Lookup("cron")
		return f != nil && f.Changed
	}

	flagName, ok := flagKeys[viperKey]
	if !ok {
		return false
	}
	f := rootCmd.PersistentFlags().Lookup(flagName)
	return f != nil && f.Changed
}

// setup loads the configuration and logger for commands that need them.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "profile" ||
		cmd.Parent() != nil && cmd.Parent().Name() == "profile" {
		return nil
	}

	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err = logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func newAdapter(ctx context.Context) (CalendarAdapter, error) {
	switch cfg.Provider {
	case "", "google":
		return newGoogleAdapter(ctx)
	case "outlook":
		return newOutlookAdapter(ctx)
	case "ics":
		if cfg.ICSURL == "" {
			return nil, errors.New("ics_url not configured for the ics provider")
		}
		return ics.NewICSAdapter("ics", "ICS feed", expandPath(cfg.ICSURL), cfg.Settings.Location()), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: google, outlook, ics)", cfg.Provider)
	}
}

func newGoogleAdapter(ctx context.Context) (CalendarAdapter, error) {
	credsFile := expandPath(cfg.CredentialsFile)
	tokenFile := expandPath(cfg.TokenFile)

	if _, err := os.Stat(credsFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("credentials file not found: %s\n\nDownload an OAuth client file from the Google Cloud console", credsFile)
	}
	if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("token file not found: %s\n\nRun 'caldigest auth' to authenticate", tokenFile)
	}

	a := google.NewGoogleAdapter("google", "Google Calendar", credsFile, tokenFile)
	if err := a.Login(ctx); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return a, nil
}

func newOutlookAdapter(ctx context.Context) (CalendarAdapter, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client_id not configured for Outlook provider\n\nAdd it to your config:\n  client_id: \"your-azure-app-client-id\"")
	}

	tokenFile := expandPath(cfg.TokenFile)
	if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("token file not found: %s\n\nRun 'caldigest auth' to authenticate with Microsoft", tokenFile)
	}

	a := outlook.NewOutlookAdapter("outlook", "Outlook Calendar", cfg.ClientID, cfg.TenantID, tokenFile, log)
	if err := a.Login(ctx); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return a, nil
}

// newRunner builds the digest runner for the configured provider.
func newRunner(ctx context.Context, l *zap.Logger) (*digest.Runner, error) {
	adapter, err := newAdapter(ctx)
	if err != nil {
		return nil, err
	}
	return digest.NewRunner(
		cfg.Settings,
		cfg.Calendar,
		adapter,
		store.NewFileStore(expandPath(cfg.OutputFile)),
		mail.NewSender(cfg.SMTP, l),
		l,
	), nil
}

func runOptions() digest.RunOptions {
	return digest.RunOptions{
		Range:          cfg.Range,
		SendEmail:      cfg.SendEmail,
		FallbackToWeek: viper.GetBool("fallback_week"),
	}
}

func runDigest(cmd *cobra.Command, _ []string) error {
	runner, err := newRunner(cmd.Context(), log)
	if err != nil {
		return err
	}

	report, err := runner.Run(cmd.Context(), runOptions())
	printReport(cmd.OutOrStdout(), report)
	return err
}

func printReport(w io.Writer, report *digest.Report) {
	if report == nil {
		return
	}

	fmt.Fprintf(w, "📅 %s\n", report.Window)
	if report.OutputPath != "" {
		fmt.Fprintf(w, "💾 Saved to %s\n", report.OutputPath)
	}
	if report.Emailed {
		fmt.Fprintln(w, "✉️  Email sent")
	}
	if n := len(report.Result.Skipped); n > 0 {
		fmt.Fprintf(w, "⚠️  %d events skipped\n", n)
	}
	fmt.Fprintf(w, "Summary: %s\n", report.Result.Summary())
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
