package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_header_timeout", "15s")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "30s")
	viper.SetDefault("openweathermap.api_url", "https://api.openweathermap.org/data/2.5")
	viper.SetDefault("openweathermap.timeout", "10s")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.expiration", "5m")
	viper.SetDefault("dashboard.default_place", "Havana")
	viper.SetDefault("dashboard.error_display", "3s")
	viper.SetDefault("refresh.interval", "10m")
	viper.SetDefault("geolocation.enabled", false)
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Warnw("Project root not found, using defaults", "error", err)
			return
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Warnw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			viper.AddConfigPath(root)
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Warnw("Error merging test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// GetOpenWeatherApiUrl returns the base URL of the OpenWeatherMap 2.5 API,
// without a trailing slash.
func GetOpenWeatherApiUrl() string {
	initConfig()
	return strings.TrimRight(viper.GetString("openweathermap.api_url"), "/")
}

func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

// GetHTTPClientTimeout bounds every outbound request. Defaults to 10s.
func GetHTTPClientTimeout() time.Duration {
	initConfig()
	return getDuration("openweathermap.timeout", 10*time.Second)
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

func IsCacheEnabled() bool {
	initConfig()
	return viper.GetBool("cache.enabled")
}

// GetCacheExpiration returns the TTL of cached API responses. Defaults to 5m.
func GetCacheExpiration() time.Duration {
	initConfig()
	return getDuration("cache.expiration", 5*time.Minute)
}

func GetServerPort() string {
	initConfig()
	return viper.GetString("server.port")
}

func GetServerTimeout(key string) time.Duration {
	initConfig()
	return getDuration("server."+key, 15*time.Second)
}

// GetDefaultPlace is the place shown before the user picks one.
func GetDefaultPlace() string {
	initConfig()
	return viper.GetString("dashboard.default_place")
}

// GetErrorDisplayDuration is how long a search error stays visible.
func GetErrorDisplayDuration() time.Duration {
	initConfig()
	return getDuration("dashboard.error_display", 3*time.Second)
}

// GetRefreshInterval returns the period of the background forecast refresh.
// Zero disables it.
func GetRefreshInterval() time.Duration {
	initConfig()
	return getDuration("refresh.interval", 0)
}

// Geolocation describes the device position used when a locate request
// carries no coordinates of its own.
type Geolocation struct {
	Enabled   bool
	Latitude  float64
	Longitude float64
}

func GetGeolocation() Geolocation {
	initConfig()
	return Geolocation{
		Enabled:   viper.GetBool("geolocation.enabled"),
		Latitude:  viper.GetFloat64("geolocation.latitude"),
		Longitude: viper.GetFloat64("geolocation.longitude"),
	}
}

func GetTestRedisMockPort() string {
	initConfig()
	return viper.GetString("test.redis_mock_port")
}

func GetTestServerPort() string {
	initConfig()
	return viper.GetString("test.server_port")
}

func getDuration(key string, fallback time.Duration) time.Duration {
	durStr := viper.GetString(key)
	if durStr == "" {
		return fallback
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		GetLogger().Warnw("Invalid duration in config", "key", key, "value", durStr, "error", err)
		return fallback
	}
	return dur
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}
