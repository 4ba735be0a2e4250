package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/tamashii/internal/blocker/domain"
)

// EnvPrefix is stripped from every environment variable the loader reads.
const EnvPrefix = "TAMASHII_"

// AppConfig is the complete daemon configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env       string          `koanf:"env" validate:"required,oneof=dev prod"`
	Log       LogConfig       `koanf:"log"`
	Blocker   BlockerConfig   `koanf:"blocker"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Control   ControlConfig   `koanf:"control"`
	State     StateConfig     `koanf:"state"`
	Notify    NotifyConfig    `koanf:"notify"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type BlockerConfig struct {
	// Mode selects how the blocklist is enforced.
	Mode string `koanf:"mode" validate:"required,oneof=hosts native none"`
	// HostsPath overrides the platform hosts file. Empty selects the
	// platform default.
	HostsPath string `koanf:"hosts_path"`
	// Interval is the tamper-protection re-apply period.
	Interval time.Duration `koanf:"interval" validate:"required,min=1s"`
	// NativeURL is the base URL of the mobile plugin bridge.
	NativeURL string `koanf:"native_url" validate:"required_if=Mode native"`
}

type SchedulerConfig struct {
	Hour     int           `koanf:"hour" validate:"gte=0,lte=23"`
	Minute   int           `koanf:"minute" validate:"gte=0,lte=59"`
	Title    string        `koanf:"title" validate:"required"`
	Cooldown time.Duration `koanf:"cooldown" validate:"required,min=1s"`
	// Quotes rotate by day of year. From the environment they are
	// separated by "|".
	Quotes []string `koanf:"quotes" validate:"required,min=1,dive,required"`
}

type ControlConfig struct {
	// Listen is the ip:port the control API binds to.
	Listen string `koanf:"listen" validate:"required,ip_port"`
}

type StateConfig struct {
	// DB is the bbolt state file. Empty selects a file under the user
	// config directory.
	DB string `koanf:"db"`
}

type NotifyConfig struct {
	// Command is the notification program, optionally with leading
	// arguments.
	Command string `koanf:"command" validate:"required"`
}

// DEFAULT_APP_CONFIG holds the values used for anything the environment
// does not set.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LogConfig{
		Level: "info",
	},
	Blocker: BlockerConfig{
		Mode:     "hosts",
		Interval: 60 * time.Second,
	},
	Scheduler: SchedulerConfig{
		Hour:     9,
		Minute:   30,
		Title:    "FunTime - Daily Reminder",
		Cooldown: 61 * time.Second,
		Quotes:   domain.DefaultQuotes,
	},
	Control: ControlConfig{
		Listen: "127.0.0.1:7878",
	},
	Notify: NotifyConfig{
		Command: "notify-send",
	},
}

// listSeparators names the keys whose env values are lists, and how their
// items are separated.
var listSeparators = map[string]string{
	"scheduler.quotes": "|",
}

// validIPPort validates whether the provided field value is a valid IP
// address and port combination.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	if net.ParseIP(ip) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envKey maps TAMASHII_BLOCKER_HOSTS_PATH to blocker.hosts_path: the first
// underscore after the prefix separates the section from the field.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func envTransform(key, value string) (string, any) {
	key = envKey(key)
	value = strings.TrimSpace(value)
	if value == "" {
		return key, value
	}
	if sep, ok := listSeparators[key]; ok {
		var parts []string
		for _, p := range strings.Split(value, sep) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return key, parts
	}
	return key, value
}

// envLoader loads environment variables with the prefix "TAMASHII_" and
// can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// DefaultStatePath is where the state database lives when state.db is
// unset.
func DefaultStatePath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate user config directory: %w", err)
	}
	return filepath.Join(dir, "tamashii", "state.db"), nil
}

// Load applies defaults, then environment overrides, then validates.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if cfg.State.DB == "" {
		path, err := DefaultStatePath()
		if err != nil {
			return nil, err
		}
		cfg.State.DB = path
	}

	return &cfg, nil
}
