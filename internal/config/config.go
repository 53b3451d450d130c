// Package config turns viper/env settings into explicit structs that are
// passed to the digest pipeline at call time.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DefaultReportingOffset = -7 * time.Hour
	DefaultMaxResults      = 100000
	DefaultOutputFile      = "calendar_events.json"
)

// Settings are the options the resolver and normalizer depend on.
type Settings struct {
	// Fixed UTC offset used for every date boundary. Never DST-aware.
	ReportingOffset time.Duration
	// Strip markup and entities from descriptions.
	EnableHTMLCleaning bool
	// Cap on events requested from the provider.
	MaxResults int `key:"max_results" validate:"min=0"`
}

// DefaultSettings mirrors the defaults applied when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ReportingOffset: DefaultReportingOffset,
		MaxResults:      DefaultMaxResults,
	}
}

// Location returns the fixed-offset reporting zone.
func (s Settings) Location() *time.Location {
	return time.FixedZone(FormatOffset(s.ReportingOffset), int(s.ReportingOffset/time.Second))
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string   `key:"host" validate:"required"`
	Port     int      `key:"port" validate:"min=1,max=65535"`
	Username string   `key:"username"`
	Password string   `key:"password"`
	From     string   `key:"from" validate:"omitempty,email"`
	To       []string `key:"to" validate:"omitempty,dive,email"`
}

// Complete reports whether enough is set to attempt delivery.
func (c SMTPConfig) Complete() bool {
	return c.Username != "" && c.Password != "" && len(c.To) > 0
}

// Config is the full application configuration.
type Config struct {
	Settings Settings

	Provider        string `key:"provider" validate:"oneof=google outlook ics"`
	Calendar        string `key:"calendar"`
	CredentialsFile string `key:"credentials_file"`
	TokenFile       string `key:"token_file"`
	ClientID        string `key:"client_id"`
	TenantID        string `key:"tenant_id"`
	ICSURL          string `key:"ics_url" validate:"required_if=Provider ics"`

	OutputFile string `key:"output_json_file" validate:"required"`
	Range      string `key:"range"`
	SendEmail  bool   `key:"send_email"`
	Schedule   string `key:"schedule"`

	SMTP SMTPConfig `key:"smtp"`

	LogLevel  string `key:"log.level"`
	LogFormat string `key:"log.format" validate:"omitempty,oneof=json console"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report config keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("key")
	})
	return v
}

// Validate checks field constraints and reports every violation by key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(strings.TrimPrefix(fe.Namespace(), "Config."), "Settings.")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: %v fails %s", key, fe.Value(), rule))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// EnvPrefix namespaces environment variables, e.g. CALDIGEST_SMTP_HOST.
const EnvPrefix = "CALDIGEST"

// legacyEnv maps keys to the variable names older .env files use.
var legacyEnv = map[string]string{
	"calendar":             "GOOGLE_CALENDAR_NAME",
	"credentials_file":     "GOOGLE_CREDENTIALS_FILE",
	"token_file":           "GOOGLE_TOKEN_FILE",
	"max_results":          "MAX_RESULTS",
	"output_json_file":     "OUTPUT_JSON_FILE",
	"enable_html_cleaning": "ENABLE_HTML_CLEANING",
	"smtp.host":            "SMTP_SERVER",
	"smtp.port":            "SMTP_PORT",
	"smtp.username":        "EMAIL_USER",
	"smtp.password":        "EMAIL_PASSWORD",
	"smtp.to":              "RECIPIENT_EMAIL",
}

// BindEnv enables CALDIGEST_* lookups for every key and accepts the legacy
// unprefixed names as a fallback.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// SetDefaults registers defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", "google")
	v.SetDefault("credentials_file", "credentials.json")
	v.SetDefault("token_file", "token.json")
	v.SetDefault("output_json_file", DefaultOutputFile)
	v.SetDefault("max_results", DefaultMaxResults)
	v.SetDefault("enable_html_cleaning", false)
	v.SetDefault("reporting_offset", FormatOffset(DefaultReportingOffset))
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("schedule", "0 7 * * 1")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the configuration out of v.
func Load(v *viper.Viper) (*Config, error) {
	offset, err := ParseOffset(v.GetString("reporting_offset"))
	if err != nil {
		return nil, fmt.Errorf("reporting_offset: %w", err)
	}

	cfg := &Config{
		Settings: Settings{
			ReportingOffset:    offset,
			EnableHTMLCleaning: v.GetBool("enable_html_cleaning"),
			MaxResults:         v.GetInt("max_results"),
		},
		Provider:        v.GetString("provider"),
		Calendar:        v.GetString("calendar"),
		CredentialsFile: v.GetString("credentials_file"),
		TokenFile:       v.GetString("token_file"),
		ClientID:        v.GetString("client_id"),
		TenantID:        v.GetString("tenant_id"),
		ICSURL:          v.GetString("ics_url"),
		OutputFile:      v.GetString("output_json_file"),
		Range:           v.GetString("range"),
		SendEmail:       v.GetBool("send_email"),
		Schedule:        v.GetString("schedule"),
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
			To:       splitAndTrim(v.GetString("smtp.to")),
		},
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// offsetRe accepts ±HH, ±HHMM and ±HH:MM with ASCII digits only.
var offsetRe = regexp.MustCompile(`^([+-])([0-9]{2})(?::?([0-9]{2}))?$`)

// ParseOffset parses "Z", "+05:30", "-07:00" or "-0700".
func ParseOffset(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "Z" || s == "z" {
		return 0, nil
	}

	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid offset %q (want +HH:MM or -HH:MM)", raw)
	}

	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	if hours > 14 || minutes > 59 {
		return 0, fmt.Errorf("offset %q out of range", raw)
	}

	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

// FormatOffset renders an offset as ±HH:MM.
func FormatOffset(d time.Duration) string {
	sign := '+'
	if d < 0 {
		sign = '-'
		d = -d
	}
	return fmt.Sprintf("%c%02d:%02d", sign, int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
