package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OwnershipRule binds a route to the path/query parameter that names the owning reference id
type OwnershipRule struct {
	Method    string `yaml:"method"`
	Path      string `yaml:"path"`
	Source    string `yaml:"source"`
	ParamName string `yaml:"paramName"`
	Owner     string `yaml:"owner"`
}

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	Issuer    string `yaml:"issuer"`
	AccessTTL string `yaml:"access_ttl"`
}

type AuthConfig struct {
	BcryptCost       int    `yaml:"bcrypt_cost"`
	BootstrapLockTTL string `yaml:"bootstrap_lock_ttl"`
}

type PaymentsConfig struct {
	LessonsPerCycle int    `yaml:"lessons_per_cycle"`
	GracePeriod     string `yaml:"grace_period"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auth     AuthConfig     `yaml:"auth"`
	Payments PaymentsConfig `yaml:"payments"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	Casbin   CasbinConfig   `yaml:"casbin"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type Config struct {
	Port             string
	GinMode          string
	DSN              string
	DBLogLevel       string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	JWTSecret        string
	JWTIssuer        string
	AccessTTL        time.Duration
	BcryptCost       int
	BootstrapLockTTL time.Duration
	LessonsPerCycle  int
	GracePeriod      time.Duration
	TwilioSID        string
	TwilioToken      string
	TwilioFrom       string
	SendGridKey      string
	SendGridFrom     string
	SendGridFromName string
	CasbinModelPath  string
	LogLevel         string
	LogFormat        string
	OwnershipRules   []OwnershipRule
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads config from SCHOOL_CONFIG_DIR (default "config") after loading an optional .env
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFrom(env("SCHOOL_CONFIG_DIR", "config"))
}

// LoadFrom reads config.yml and ownership_rules.yml from dir and applies env overrides
func LoadFrom(dir string) (*Config, error) {
	configFile, err := loadConfigFile(filepath.Join(dir, "config.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	accTTL, err := parseDuration(configFile.JWT.AccessTTL, time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access TTL: %w", err)
	}

	lockTTL, err := parseDuration(configFile.Auth.BootstrapLockTTL, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid bootstrap lock TTL: %w", err)
	}

	grace, err := parseDuration(configFile.Payments.GracePeriod, 168*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid payment grace period: %w", err)
	}

	ownershipRules, err := loadOwnershipRules(filepath.Join(dir, "ownership_rules.yml"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:             strconv.Itoa(orDefault(configFile.App.Port, 8080)),
		GinMode:          configFile.App.GinMode,
		DSN:              env("SCHOOL_DATABASE_DSN", configFile.Database.DSN),
		DBLogLevel:       configFile.Database.LogLevel,
		RedisAddr:        env("SCHOOL_REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:    env("SCHOOL_REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:          configFile.Redis.DB,
		JWTSecret:        env("SCHOOL_JWT_SECRET", configFile.JWT.Secret),
		JWTIssuer:        configFile.JWT.Issuer,
		AccessTTL:        accTTL,
		BcryptCost:       orDefault(configFile.Auth.BcryptCost, 10),
		BootstrapLockTTL: lockTTL,
		LessonsPerCycle:  orDefault(configFile.Payments.LessonsPerCycle, 8),
		GracePeriod:      grace,
		TwilioSID:        env("SCHOOL_TWILIO_SID", configFile.Twilio.AccountSID),
		TwilioToken:      env("SCHOOL_TWILIO_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:       configFile.Twilio.FromNumber,
		SendGridKey:      env("SCHOOL_SENDGRID_KEY", configFile.SendGrid.APIKey),
		SendGridFrom:     configFile.SendGrid.FromEmail,
		SendGridFromName: configFile.SendGrid.FromName,
		CasbinModelPath:  configFile.Casbin.ModelPath,
		LogLevel:         env("SCHOOL_LOG_LEVEL", configFile.Logging.Level),
		LogFormat:        configFile.Logging.Format,
		OwnershipRules:   ownershipRules,
	}

	if cfg.CasbinModelPath != "" && !filepath.IsAbs(cfg.CasbinModelPath) {
		cfg.CasbinModelPath = filepath.Join(dir, cfg.CasbinModelPath)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required (jwt.secret or SCHOOL_JWT_SECRET)")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("jwt access TTL must be positive")
	}

	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func loadOwnershipRules(path string) ([]OwnershipRule, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read ownership rules file: %w", err)
	}

	var rules struct {
		Rules []OwnershipRule `yaml:"ownershipRules"`
	}
	if err := yaml.Unmarshal(bytes, &rules); err != nil {
		return nil, fmt.Errorf("could not parse ownership rules yaml: %w", err)
	}
	for i, r := range rules.Rules {
		if r.Owner == "" {
			rules.Rules[i].Owner = "student"
		}
		if r.Owner != "student" && r.Owner != "teacher" {
			return nil, fmt.Errorf("ownership rule %s %s: unknown owner %q", r.Method, r.Path, r.Owner)
		}
		if r.Source != "path" && r.Source != "query" {
			return nil, fmt.Errorf("ownership rule %s %s: unsupported source %q", r.Method, r.Path, r.Source)
		}
	}
	return rules.Rules, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
