package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/txemi/immich-autotag-sub000/core/database"
	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/logger"
	"github.com/txemi/immich-autotag-sub000/core/respcache"
	"github.com/txemi/immich-autotag-sub000/core/storage"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"
	"github.com/txemi/immich-autotag-sub000/feature/classify"
	"github.com/txemi/immich-autotag-sub000/feature/collection"
	"github.com/txemi/immich-autotag-sub000/feature/organizer"
	"github.com/txemi/immich-autotag-sub000/feature/status"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Immich holds the remote server connection settings.
	Immich immich.Config `mapstructure:"immich"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run-statistics database.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the object storage cache backend.
	Storage storage.Config `mapstructure:"storage"`
	// Cache holds configuration for the response cache.
	Cache respcache.Config `mapstructure:"cache"`
	// Catalog holds the entity-cache freshness settings.
	Catalog catalog.Config `mapstructure:"catalog"`
	// Classify holds the classification rules and album-decision settings.
	Classify classify.Config `mapstructure:"classify"`
	// Collection holds the album-collection settings.
	Collection collection.Config `mapstructure:"collection"`
	// Organizer holds the reconciliation-driver settings.
	Organizer organizer.Config `mapstructure:"organizer"`
	// Server holds the status HTTP server settings.
	Server status.Config `mapstructure:"server"`
	// ErrorMode selects operator, developer or diagnostic error handling.
	ErrorMode string `mapstructure:"error_mode" default:"operator"`
}

// Mode parses the configured error-handling mode.
func (c *Config) Mode() (errmode.Mode, error) {
	return errmode.Parse(c.ErrorMode)
}

// LoadConfig loads configuration from an optional config.yaml in path, a .env
// file and environment variables. Classification rules and tag conversions can
// only be expressed in the YAML file; everything else also maps to environment
// variables (e.g. IMMICH_ENDPOINT -> immich.endpoint).
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Map environment variables to nested keys (e.g. IMMICH_API_KEY -> immich.api_key)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if _, err := config.Mode(); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
