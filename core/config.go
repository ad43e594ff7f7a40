package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		AppName         string
		Debug           bool
		TestMode        bool
		SecretKey       string
		SendgridApiKey  string
		RollbarToken    string
		FrontendBaseURL string
		WorkDir         string

		Server   ServerConfig
		Database DatabaseConfig
		Merit    MeritConfig

		defaultFromEmail string
	}

	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Driver        string // sqlx, gorm or memory
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	MeritConfig struct {
		// ElevatedRoles may change locked status fields of committed submissions.
		ElevatedRoles []string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// NewConfig loads the configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the env name, eg. PROD_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Merit List")
	v.SetDefault("secretKey", "u7#kq2=merit-dev-key)p!9xw+1s$4t&d8@zl")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("database.driver", "sqlx")
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "meritlist")
	v.SetDefault("database.user", "meritlist")
	v.SetDefault("database.password", "meritlist")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("merit.elevatedRoles", []string{"admin:", "staff:academics", "staff:system"})

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, _ := os.Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:             env,
		Build:           v.GetString("build"),
		AppName:         v.GetString("appName"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		WorkDir:         wd,
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(v.GetString("database.driver")),
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Merit: MeritConfig{
			ElevatedRoles: v.GetStringSlice("merit.elevatedRoles"),
		},
		defaultFromEmail: v.GetString("defaultFromEmail"),
	}
}

// NewTestConfig returns the configuration used by tests. It never reads the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:       "TEST",
		Build:     "test",
		AppName:   "Merit List",
		TestMode:  true,
		SecretKey: "test-secret",
		Server: ServerConfig{
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database: DatabaseConfig{Driver: "memory"},
		Merit: MeritConfig{
			ElevatedRoles: []string{"admin:", "staff:academics", "staff:system"},
		},
		defaultFromEmail: "noreply@test.test",
	}
}
