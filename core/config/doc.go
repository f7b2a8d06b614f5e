// Package config loads the application configuration.
//
// Configuration comes from environment variables, optionally seeded from a
// .env file via godotenv. Defaults are declared as struct tags on the
// partial config types and registered into Viper by reflection, so every
// key is overridable with SECTION_KEY environment variables
// (e.g. LIBRARY_ROOT, DATABASE_DRIVER, SERVER_PORT).
package config
