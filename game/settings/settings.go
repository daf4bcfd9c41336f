// Package settings loads server settings from defaults, an optional
// rescuesim.{yaml,json} file and RESCUE_* environment variables.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RESCUE_PORT
const EnvPrefix = "RESCUE"

// FileName is the settings file looked up in the search directories
const FileName = "rescuesim"

// Settings holds everything the server needs to start
type Settings struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	ConfigDir   string        `mapstructure:"config_dir"`
	SessionsDir string        `mapstructure:"sessions_dir"`
	HistoryDB   string        `mapstructure:"history_db"`
	LogLevel    string        `mapstructure:"log_level"`
	LogPretty   bool          `mapstructure:"log_pretty"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	ExternalAPI string        `mapstructure:"external_api"`

	// File is the settings file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// Addr is the host:port the HTTP server binds to
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 8080)
	v.SetDefault("config_dir", "configs")
	v.SetDefault("sessions_dir", "sessions")
	v.SetDefault("history_db", "history.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("external_api", "http://localhost:8080")
}

// Load reads settings. Each directory in dirs is searched for
// rescuesim.yaml or rescuesim.json; a missing file is not an error.
func Load(dirs ...string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	if len(dirs) == 0 {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading settings file: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}
	s.File = v.ConfigFileUsed()

	if s.Port < 0 || s.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", s.Port)
	}
	return s, nil
}
