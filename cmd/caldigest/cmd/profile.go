package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
	Long: `Manage configuration profiles for different calendars and accounts.

Profiles let you keep one digest per calendar (say, the library events
calendar and a personal one) and switch with -p <name>.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAdd,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a profile's settings",
	Long: `Edit a profile's settings using flags.

Example:
  caldigest profile edit library --calendar="Library Events" --html-cleaning
  caldigest profile edit family --range="next week" --smtp-to=me@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileEdit,
}

type flagKind int

const (
	stringFlag flagKind = iota
	boolFlag
	intFlag
)

// profileFlag ties a profile flag to the config key it writes.
type profileFlag struct {
	name  string
	key   string
	kind  flagKind
	usage string
}

var profileFlags = []profileFlag{
	{"provider", "provider", stringFlag, "Calendar provider: google, outlook or ics"},
	{"calendar", "calendar", stringFlag, "Calendar name"},
	{"credentials-file", "credentials_file", stringFlag, "Path to credentials file"},
	{"token-file", "token_file", stringFlag, "Path to token file"},
	{"client-id", "client_id", stringFlag, "Azure app client ID (outlook)"},
	{"tenant-id", "tenant_id", stringFlag, "Azure tenant ID (outlook)"},
	{"ics-url", "ics_url", stringFlag, "ICS feed URL or file path"},
	{"output", "output_json_file", stringFlag, "Snapshot JSON file"},
	{"range", "range", stringFlag, "Default date range"},
	{"reporting-offset", "reporting_offset", stringFlag, "Reporting UTC offset, e.g. -07:00"},
	{"schedule", "schedule", stringFlag, "Cron spec for the schedule command"},
	{"smtp-to", "smtp.to", stringFlag, "Comma-separated email recipients"},
	{"max-results", "max_results", intFlag, "Cap on fetched events"},
	{"html-cleaning", "enable_html_cleaning", boolFlag, "Strip HTML from descriptions"},
	{"send-email", "send_email", boolFlag, "Email the summary on every run"},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)
	profileCmd.AddCommand(profileEditCmd)

	addProfileFlags(profileAddCmd.Flags())
	addProfileFlags(profileEditCmd.Flags())
}

func addProfileFlags(fs *pflag.FlagSet) {
	for _, f := range profileFlags {
		switch f.kind {
		case boolFlag:
			fs.Bool(f.name, false, f.usage)
		case intFlag:
			fs.Int(f.name, 0, f.usage)
		default:
			fs.String(f.name, "", f.usage)
		}
	}
}

// applyProfileFlags copies every changed flag into profile and reports
// whether anything changed. Dotted keys become nested maps.
func applyProfileFlags(fs *pflag.FlagSet, profile map[string]interface{}) bool {
	changed := false
	for _, f := range profileFlags {
		if !fs.Changed(f.name) {
			continue
		}

		var val interface{}
		switch f.kind {
		case boolFlag:
			val, _ = fs.GetBool(f.name)
		case intFlag:
			val, _ = fs.GetInt(f.name)
		default:
			val, _ = fs.GetString(f.name)
		}
		setNested(profile, f.key, val)
		changed = true
	}
	return changed
}

func setNested(m map[string]interface{}, key string, val interface{}) {
	section, field, ok := strings.Cut(key, ".")
	if !ok {
		m[key] = val
		return
	}
	sub, ok := m[section].(map[string]interface{})
	if !ok {
		sub = make(map[string]interface{})
	}
	sub[field] = val
	m[section] = sub
}

func runProfileList(_ *cobra.Command, _ []string) error {
	profiles := viper.GetStringMap("profiles")
	defaultProfile := viper.GetString("default_profile")

	if len(profiles) == 0 {
		fmt.Println("No profiles configured.")
		fmt.Println("\nAdd one with: caldigest profile add <name> --calendar=<name>")
		return nil
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available profiles:")
	fmt.Println("─────────────────────────────────────────────────")

	for _, name := range names {
		marker := "  "
		if name == defaultProfile {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, name)
	}

	fmt.Println("─────────────────────────────────────────────────")
	if defaultProfile != "" {
		fmt.Printf("Default: %s\n", defaultProfile)
	}
	fmt.Println("\nUse 'caldigest profile show <name>' for details")

	return nil
}

func runProfileShow(_ *cobra.Command, args []string) error {
	var profileName string
	if len(args) > 0 {
		profileName = args[0]
	} else {
		profileName = viper.GetString("default_profile")
		if profileName == "" {
			return fmt.Errorf("no profile specified and no default profile set")
		}
	}

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	settings := viper.GetStringMap(profileKey)

	fmt.Printf("Profile: %s\n", profileName)
	if profileName == viper.GetString("default_profile") {
		fmt.Println("(default)")
	}
	fmt.Println("─────────────────────────────────────────────────")

	fmt.Println("\n📁 Source:")
	printSetting(settings, "provider", "provider")
	printSetting(settings, "calendar", "calendar")
	printSetting(settings, "credentials_file", "credentials-file")
	printSetting(settings, "token_file", "token-file")
	printSetting(settings, "client_id", "client-id")
	printSetting(settings, "tenant_id", "tenant-id")
	printSetting(settings, "ics_url", "ics-url")

	fmt.Println("\n📅 Digest:")
	printSetting(settings, "range", "range")
	printSetting(settings, "reporting_offset", "reporting-offset")
	printSetting(settings, "max_results", "max-results")
	printSetting(settings, "enable_html_cleaning", "html-cleaning")
	printSetting(settings, "output_json_file", "output")
	printSetting(settings, "schedule", "schedule")

	if smtp, ok := settings["smtp"].(map[string]interface{}); ok && len(smtp) > 0 {
		fmt.Println("\n✉️  Email:")
		printSetting(settings, "send_email", "send-email")
		printSetting(smtp, "host", "smtp-host")
		printSetting(smtp, "to", "smtp-to")
		if _, ok := smtp["password"]; ok {
			fmt.Println("  smtp-password: ********")
		}
	}

	fmt.Println()
	return nil
}

func printSetting(settings map[string]interface{}, key, displayKey string) {
	if val, ok := settings[key]; ok {
		fmt.Printf("  %s: %v\n", displayKey, val)
	}
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' already exists. Use 'caldigest profile edit %s' to modify it", profileName, profileName)
	}

	profile := make(map[string]interface{})
	applyProfileFlags(cmd.Flags(), profile)

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' created\n", profileName)
	fmt.Printf("\nUse it with: caldigest -p %s\n", profileName)
	fmt.Printf("Set as default: caldigest profile default %s\n", profileName)

	return nil
}

func runProfileSetDefault(_ *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	if err := setDefaultProfileInConfig(profileName); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}

	fmt.Printf("✓ Default profile set to '%s'\n", profileName)
	return nil
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	config, err := readConfigFile()
	if err != nil {
		return err
	}
	profiles, _ := config["profiles"].(map[string]interface{})
	profile, ok := profiles[profileName].(map[string]interface{})
	if !ok {
		return fmt.Errorf("profile '%s' not found. Use 'caldigest profile add %s' to create it", profileName, profileName)
	}

	if !applyProfileFlags(cmd.Flags(), profile) {
		fmt.Println("No changes specified. Use flags to update settings:")
		fmt.Println("  caldigest profile edit", profileName, "--range=\"next week\" --html-cleaning")
		return nil
	}

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("✓ Profile '%s' updated\n", profileName)
	return nil
}

// Config file manipulation functions

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "caldigest", "config.yaml")
}

func readConfigFile() (map[string]interface{}, error) {
	data, err := os.ReadFile(getConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", getConfigPath(), err)
	}

	if config == nil {
		config = make(map[string]interface{})
	}

	return config, nil
}

func writeConfigFile(config map[string]interface{}) error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	// Profiles may hold SMTP passwords.
	return os.WriteFile(configPath, data, 0600)
}

func saveProfileToConfig(name string, profile map[string]interface{}) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	profiles, ok := config["profiles"].(map[string]interface{})
	if !ok {
		profiles = make(map[string]interface{})
	}

	profiles[name] = profile
	config["profiles"] = profiles

	return writeConfigFile(config)
}

func setDefaultProfileInConfig(name string) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	config["default_profile"] = name

	return writeConfigFile(config)
}
