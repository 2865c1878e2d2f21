package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode  string      `mapstructure:"mode"`
	Port  int         `mapstructure:"port"`
	Janus JanusConfig `mapstructure:"janus"`
	CM    CMConfig    `mapstructure:"cm"`
	Jobs  JobsConfig  `mapstructure:"jobs"`
}

type JanusConfig struct {
	URL                string        `mapstructure:"url"`
	Subprotocol        string        `mapstructure:"subprotocol"`
	TransactionTimeout time.Duration `mapstructure:"transaction_timeout"`
	TransactionTTL     time.Duration `mapstructure:"transaction_ttl"`
	ReadLimit          int64         `mapstructure:"read_limit"`
	PingPeriod         time.Duration `mapstructure:"ping_period"`
}

type CMConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ImportCommand string        `mapstructure:"import_command"`
}

type JobsConfig struct {
	// Dir is watched for job files. Empty disables the watcher.
	Dir            string `mapstructure:"dir"`
	TempDir        string `mapstructure:"temp_dir"`
	Workers        int    `mapstructure:"workers"`
	ConvertCommand string `mapstructure:"convert_command"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, or path when set. Every key
// can be overridden with ROOMBRIDGE_<SECTION>_<KEY>.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		path = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix("roombridge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", path)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Gateway: %s\n", cfg.Mode, cfg.Port, cfg.Janus.URL)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)

	v.SetDefault("janus.url", "ws://127.0.0.1:8188")
	v.SetDefault("janus.subprotocol", "janus-protocol")
	v.SetDefault("janus.transaction_timeout", "10s")
	v.SetDefault("janus.transaction_ttl", "0s")
	v.SetDefault("janus.read_limit", 65536)
	v.SetDefault("janus.ping_period", "54s")

	v.SetDefault("cm.base_url", "")
	v.SetDefault("cm.timeout", "5s")
	v.SetDefault("cm.import_command", "cm-import --channel={channelId} {file}")

	v.SetDefault("jobs.dir", "")
	v.SetDefault("jobs.temp_dir", os.TempDir())
	v.SetDefault("jobs.workers", 4)
	v.SetDefault("jobs.convert_command", "lame --quiet {wavFile} {mp3File}")
}

func (c *Config) Validate() error {
	if c.Janus.URL == "" {
		return fmt.Errorf("janus.url is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("port must be positive, got %d", c.Port)
	}
	if c.Jobs.Workers < 0 {
		return fmt.Errorf("jobs.workers must not be negative, got %d", c.Jobs.Workers)
	}
	return nil
}
