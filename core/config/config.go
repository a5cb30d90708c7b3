package config

import (
	"fmt"
	"reflect"
	"strings"

	"inventory-reconciler/core/catalog"
	"inventory-reconciler/core/database"
	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/server"
	"inventory-reconciler/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds the object store connection and deployment layout.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the inventory database.
	Database database.Config `mapstructure:"database"`
	// Catalog holds the metadata catalog endpoint and credentials.
	Catalog catalog.Config `mapstructure:"catalog"`
	// Reconcile tunes reconciliation runs.
	Reconcile reconcile.Config `mapstructure:"reconcile"`
}

// LoadConfig loads configuration from environment variables and the .env
// file in path.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." || path == "" {
		envPath = ".env"
	}

	// Missing .env is expected in production.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// SERVER_PORT -> server.port
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports settings that make a reconciliation run impossible.
func (c *Config) Validate() error {
	var problems []string
	if c.Storage.Endpoint == "" {
		problems = append(problems, "storage.endpoint is required")
	}
	if c.Storage.SystemBucket == "" {
		problems = append(problems, "storage.system_bucket is required")
	}
	if c.Storage.StackName == "" {
		problems = append(problems, "storage.stack_name is required")
	}
	if (c.Reconcile.CompareCollections || c.Reconcile.CompareGranules) && c.Catalog.URL == "" {
		problems = append(problems, "catalog.url is required when collections or granules are compared")
	}
	if c.Reconcile.PageSize <= 0 {
		problems = append(problems, "reconcile.page_size must be positive")
	}
	if c.Reconcile.MaxSampleSize < 0 {
		problems = append(problems, "reconcile.max_sample_size must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// bindValues walks the struct and registers every 'mapstructure' key in
// Viper with the value of its 'default' tag.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Registered even when empty so AutomaticEnv picks the key up.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
