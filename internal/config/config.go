package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Log struct {
		Level string
	}
	Database struct {
		Driver string
		Path   string
		URL    string
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
		TrustHeaders    bool
	}
	Chat struct {
		Endpoint       string
		Model          string
		APIKey         string
		Instruction    string
		TimeoutSeconds int
	}
	Storage struct {
		Bucket           string
		KeyPrefix        string
		Region           string
		Endpoint         string
		URLExpiryMinutes int
	}
	AWS struct {
		Profile string
	}
	Telemetry struct {
		ServiceName string
		Endpoint    string
		Insecure    bool
	}
}

const defaultInstruction = "You are Healthline, a friendly medical assistant. Help the user understand their symptoms, " +
	"suggest general self-care, and recommend seeing a doctor for anything serious. You do not diagnose."

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("HEALTHLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/telemed.db")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 24*60)
	v.SetDefault("auth.trustheaders", true)
	v.SetDefault("chat.endpoint", "https://generativelanguage.googleapis.com")
	v.SetDefault("chat.model", "gemini-1.5-flash")
	v.SetDefault("chat.apikey", "")
	v.SetDefault("chat.instruction", defaultInstruction)
	v.SetDefault("chat.timeoutseconds", 30)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "healthline-exports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.urlexpiryminutes", 15)
	v.SetDefault("aws.profile", "")
	v.SetDefault("telemetry.servicename", "healthline")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// the chat key is commonly provided under the provider's own name
	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt secret is required (HEALTHLINE_AUTH_JWTSECRET)")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database url is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// String masks secrets.
func (c Config) String() string {
	return fmt.Sprintf("Config{addr: %s, db: %s, trust_headers: %t, bucket: %q, auth: *** (masked) ***}",
		c.Server.Addr, c.Database.Driver, c.Auth.TrustHeaders, c.Storage.Bucket)
}

// loadDotEnv fills unset variables from path. A missing file is not an error.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
	}
}
