package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// InsecureSecret is the placeholder secret shipped with the default configuration.
const InsecureSecret = "poor-key"

// Config holds runtime configuration values for the API service and the CLI.
type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	LogLevel string
	TimeZone string

	// ProxyHeader names the header carrying the client IP behind a reverse
	// proxy. Empty means the socket address is used.
	ProxyHeader string
	// AllowOrigins is the comma separated CORS origin list for the web client.
	AllowOrigins string

	DatabaseURL string
	RedisURL    string
	NATSURL     string

	JWTSecret string
	JWTTTL    time.Duration

	HallstaffTimeAhead    time.Duration
	RequesterTimeAhead    time.Duration
	DashboardDisplayLimit int
	DashboardCacheTTL     time.Duration

	DigestHour               int
	DigestWindow             time.Duration
	EvaluationReminderPeriod time.Duration

	MailTransport     string
	MailFrom          string
	MailSubjectPrefix string
	URLPrefix         string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	SendgridAPIKey    string

	LDAP LDAPConfig
}

// LDAPConfig describes the campus directory used for login and user sync.
type LDAPConfig struct {
	URL          string
	BindDN       string
	BindPassword string
	UserBaseDN   string
	GroupBaseDN  string
	UserFilter   string
	Groups       []string
	StaffGroup   string
}

// Enabled reports whether a directory server has been configured.
func (l LDAPConfig) Enabled() bool {
	return strings.TrimSpace(l.URL) != ""
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Location resolves the configured time zone, defaulting to UTC. Load rejects
// unknown zones, so the fallback only applies to hand-built configs.
func (c Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UsesInsecureSecret reports whether the JWT secret is still the shipped placeholder.
func (c Config) UsesInsecureSecret() bool {
	return c.JWTSecret == InsecureSecret
}

// Load reads configuration values from environment variables, an optional .env
// file and an optional local override file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXDB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	overrideFile := v.GetString("config.file")
	if overrideFile != "" {
		if _, err := os.Stat(overrideFile); err == nil {
			v.SetConfigFile(overrideFile)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("failed to read local settings %s: %w", overrideFile, err)
			}
		}
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{"jwt.ttl", "dashboard.hallstaff_ahead", "dashboard.requester_ahead", "dashboard.cache_ttl", "email.digest_window", "email.evaluation_period"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:  v.GetString("app.name"),
		AppEnv:   v.GetString("app.env"),
		AppPort:  v.GetString("app.port"),
		LogLevel: strings.ToLower(v.GetString("log.level")),
		TimeZone: v.GetString("time_zone"),

		ProxyHeader:  v.GetString("http.proxy_header"),
		AllowOrigins: v.GetString("http.allow_origins"),

		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		NATSURL:     v.GetString("nats.url"),

		JWTSecret: v.GetString("jwt.secret"),
		JWTTTL:    durations["jwt.ttl"],

		HallstaffTimeAhead:    durations["dashboard.hallstaff_ahead"],
		RequesterTimeAhead:    durations["dashboard.requester_ahead"],
		DashboardDisplayLimit: v.GetInt("dashboard.display_limit"),
		DashboardCacheTTL:     durations["dashboard.cache_ttl"],

		DigestHour:               v.GetInt("email.digest_hour"),
		DigestWindow:             durations["email.digest_window"],
		EvaluationReminderPeriod: durations["email.evaluation_period"],

		MailTransport:     strings.ToLower(v.GetString("mail.transport")),
		MailFrom:          v.GetString("mail.from"),
		MailSubjectPrefix: v.GetString("mail.subject_prefix"),
		URLPrefix:         strings.TrimRight(v.GetString("url_prefix"), "/"),
		SMTPHost:          v.GetString("smtp.host"),
		SMTPPort:          v.GetInt("smtp.port"),
		SMTPUsername:      v.GetString("smtp.username"),
		SMTPPassword:      v.GetString("smtp.password"),
		SendgridAPIKey:    v.GetString("sendgrid.api_key"),

		LDAP: LDAPConfig{
			URL:          v.GetString("ldap.url"),
			BindDN:       v.GetString("ldap.bind_dn"),
			BindPassword: v.GetString("ldap.bind_password"),
			UserBaseDN:   v.GetString("ldap.user_base_dn"),
			GroupBaseDN:  v.GetString("ldap.group_base_dn"),
			UserFilter:   v.GetString("ldap.user_filter"),
			Groups:       splitList(v.GetString("ldap.groups")),
			StaffGroup:   v.GetString("ldap.staff_group"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("jwt secret must be provided")
	}

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return Config{}, fmt.Errorf("invalid time zone %q: %w", cfg.TimeZone, err)
	}

	if cfg.DashboardDisplayLimit <= 0 {
		cfg.DashboardDisplayLimit = 3
	}

	if cfg.DigestHour < 0 || cfg.DigestHour > 23 {
		return Config{}, fmt.Errorf("digest hour must be between 0 and 23, got %d", cfg.DigestHour)
	}

	switch cfg.MailTransport {
	case "log", "smtp", "sendgrid":
	default:
		return Config{}, fmt.Errorf("unsupported mail transport %q", cfg.MailTransport)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "EXDB")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("time_zone", "UTC")
	v.SetDefault("config.file", "config.local.yaml")
	v.SetDefault("http.allow_origins", "*")
	v.SetDefault("database.url", "sqlite:exdb.sqlite3")
	v.SetDefault("jwt.secret", InsecureSecret)
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("dashboard.hallstaff_ahead", "168h")
	v.SetDefault("dashboard.requester_ahead", "744h")
	v.SetDefault("dashboard.display_limit", 3)
	v.SetDefault("dashboard.cache_ttl", "2m")
	v.SetDefault("email.digest_hour", 16)
	v.SetDefault("email.digest_window", "5m")
	v.SetDefault("email.evaluation_period", "24h")
	v.SetDefault("mail.transport", "log")
	v.SetDefault("mail.from", "exdb@localhost")
	v.SetDefault("mail.subject_prefix", "[EXDB]")
	v.SetDefault("url_prefix", "http://localhost:8080")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("ldap.user_filter", "(&(objectClass=person)(cn=%s))")
	v.SetDefault("ldap.groups", "RL-RESLIFE-HallStaff,RL-RESLIFE-RA,RL-RESLIFE-HallCouncil")
	v.SetDefault("ldap.staff_group", "RL-RESLIFE-HallStaff")
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
