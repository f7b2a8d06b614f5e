package config

import (
	"reflect"
	"strings"

	"roster-manager/core/database"
	"roster-manager/core/gamedir"
	"roster-manager/core/logger"
	"roster-manager/core/server"
	"roster-manager/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application, divided into partial
// configurations owned by the packages they configure.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Library holds the engine directory layout.
	Library gamedir.Config `mapstructure:"library"`
	// Database holds configuration for the index database.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the optional backup mirror.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and a .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if the file doesn't exist (e.g. production).
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Register defaults from struct tags so AutomaticEnv sees every key.
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. LIBRARY_ROOT -> library.root)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct and registers default values in Viper based
// on the 'default' and 'mapstructure' tags.
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

		// Always set the default (even if empty) to register the key.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
