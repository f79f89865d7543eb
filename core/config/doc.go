// Package config loads the aggregate application configuration from an
// optional YAML file, a .env file and environment variables, with defaults
// taken from struct tags.
package config
