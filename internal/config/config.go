// Package config loads fumgr settings from a YAML file overlaid with
// command-line flags.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/hnrobert/fumgr/internal/auth"
	"github.com/hnrobert/fumgr/internal/logger"
)

const DefaultUsersFile = "users.properties"

type UsersConfig struct {
	File string `koanf:"file" yaml:"file"`
	// URL replaces File when set.
	URL       string `koanf:"url" yaml:"url"`
	Admin     string `koanf:"admin" yaml:"admin"`
	Encryptor string `koanf:"encryptor" yaml:"encryptor"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	Dir   string `koanf:"dir" yaml:"dir"`
}

type Config struct {
	Users UsersConfig `koanf:"users" yaml:"users"`
	Log   LogConfig   `koanf:"log" yaml:"log"`
}

func Default() Config {
	return Config{
		Users: UsersConfig{
			File:      DefaultUsersFile,
			Admin:     "admin",
			Encryptor: "md5",
		},
		Log: LogConfig{Level: "info"},
	}
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"file":      "users.file",
	"url":       "users.url",
	"admin":     "users.admin",
	"encryptor": "users.encryptor",
	"log-level": "log.level",
	"log-dir":   "log.dir",
}

// BindFlags registers the flags listed in FlagKeys on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("file", d.Users.File, "user data properties file")
	fs.String("url", "", "read-only URL of the user data (replaces --file)")
	fs.String("admin", d.Users.Admin, "administrator user name")
	fs.String("encryptor", d.Users.Encryptor, "password encryptor: md5|clear|crypt|argon2id")
	fs.String("log-level", d.Log.Level, "log level: debug|info|warn|error")
	fs.String("log-dir", "", "directory for daily log files")
}

// Load reads path (optional) and then the flags explicitly set on fs (optional).
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if fs != nil {
		p := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(p, nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Users.File == "" && c.Users.URL == "" {
		return fmt.Errorf("users.file or users.url is required")
	}
	if _, err := auth.ByName(c.Users.Encryptor); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
