package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database DatabaseConfig
	Face     FaceConfig
	Defaults DefaultsConfig
}

type DatabaseConfig struct {
	Driver       string // "postgres" (default) or "mysql"
	URL          string // PostgreSQL connection URL
	MySQLDSN     string // MySQL DSN when Driver is "mysql"
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type FaceConfig struct {
	ModelsDir string  // Directory with dlib model files; empty disables encoding
	ImagesDir string  // Directory for stored face captures (default "faces")
	Tolerance float64 // Match tolerance override; 0 uses the embedded default
}

// DefaultsConfig carries the embedded application defaults.
type DefaultsConfig struct {
	Windows struct {
		DashboardDays int `yaml:"dashboard_days"`
		ListDays      int `yaml:"list_days"`
	} `yaml:"windows"`
	Matching struct {
		Tolerance float64 `yaml:"tolerance"`
	} `yaml:"matching"`
	Capture struct {
		MaxImageSize int `yaml:"max_image_size"`
	} `yaml:"capture"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:       envString("DATABASE_DRIVER", "postgres"),
			URL:          os.Getenv("DATABASE_URL"),
			MySQLDSN:     os.Getenv("MYSQL_DSN"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Face: FaceConfig{
			ModelsDir: os.Getenv("FACE_MODELS_DIR"),
			ImagesDir: envString("FACE_IMAGES_DIR", "faces"),
			Tolerance: envFloat("FACE_TOLERANCE", defaults.Matching.Tolerance),
		},
		Defaults: defaults,
	}
}

// DashboardDays returns the trailing window size for the dashboard view.
func (c *Config) DashboardDays() int {
	if c.Defaults.Windows.DashboardDays > 0 {
		return c.Defaults.Windows.DashboardDays
	}
	return 7
}

// ListDays returns the trailing window size for the attendance list view.
// The ATTENDANCE_LIST_DAYS environment variable overrides the embedded default.
func (c *Config) ListDays() int {
	return envInt("ATTENDANCE_LIST_DAYS", c.Defaults.Windows.ListDays)
}

// MaxImageSize returns the longest edge allowed for captured images before
// they are downscaled.
func (c *Config) MaxImageSize() int {
	if c.Defaults.Capture.MaxImageSize > 0 {
		return c.Defaults.Capture.MaxImageSize
	}
	return 1280
}
