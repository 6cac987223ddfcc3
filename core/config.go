package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		AppName  string
		Build    string

		SecretKey          string
		JWTExpirationDelta time.Duration

		// SessionInitTimeout bounds session recovery on start-up so a slow
		// identity backend never blocks the UI.
		SessionInitTimeout time.Duration
		// FetchTimeout bounds every record fetch.
		FetchTimeout time.Duration

		// LocalStatePath points at the JSON file holding the last-known
		// session and profile used as a best-effort fallback.
		LocalStatePath string

		RollbarToken string

		Database DatabaseConfig
	}
)

func (dc DatabaseConfig) Address() string {
	return dc.Host + ":" + dc.Port
}

// NewConfig loads the configuration from the environment, with an optional
// config/.env.<env> file on top of the built-in defaults.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "LGSTakip")
	v.SetDefault("secretKey", "x#2frplq0t&$+u)8yuz-gm9%ii&5(tsz0u+lm4ly6h28l^$1b0")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("sessionInitTimeout", 4*time.Second)
	v.SetDefault("fetchTimeout", 10*time.Second)
	v.SetDefault("localStatePath", filepath.Join(os.TempDir(), "lgstakip-state.json"))
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "lgstakip")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		Env:                env,
		AppName:            v.GetString("appName"),
		Build:              v.GetString("build"),
		SecretKey:          v.GetString("secretKey"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		SessionInitTimeout: v.GetDuration("sessionInitTimeout"),
		FetchTimeout:       v.GetDuration("fetchTimeout"),
		LocalStatePath:     v.GetString("localStatePath"),
		RollbarToken:       v.GetString("rollbarToken"),
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			DisableTLS:    v.GetBool("dbDisableTls"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: short timeouts and no
// external reporting.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.TestMode = true
	conf.SessionInitTimeout = 200 * time.Millisecond
	conf.FetchTimeout = time.Second
	conf.RollbarToken = ""
	return conf
}
