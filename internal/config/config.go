// Package config provides configuration management for the GCS service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Fleet    FleetConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Notify   NotifyConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
}

// FleetConfig points at the YAML fleet definition and carries the
// fallback link settings used when no fleet file is configured.
type FleetConfig struct {
	File            string // path to fleet.yaml, optional
	DefaultEndpoint string // serial device or udp:// address
	DefaultBaud     int
	Simulation      bool // run every connect in simulation mode
}

// AuthConfig holds authentication-related configuration. The service
// runs with a single operator account; auth can be disabled entirely
// for bench setups.
type AuthConfig struct {
	Enabled              bool
	JWTSecret            string
	JWTAccessTokenTTL    time.Duration
	OperatorUser         string
	OperatorPasswordHash string // bcrypt hash
}

// NotifyConfig holds event delivery configuration
type NotifyConfig struct {
	MQTTBroker   string // optional, e.g. tcp://localhost:1883
	MQTTClientID string
}

// DatabaseConfig holds flight-log database configuration. The flight
// log is optional; with Enabled false the service keeps no history.
type DatabaseConfig struct {
	Enabled               bool
	URL                   string
	Host                  string
	Port                  string
	Name                  string
	User                  string
	Password              string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "5000"),
		},
		Fleet: FleetConfig{
			File:            getEnv("FLEET_FILE", ""),
			DefaultEndpoint: getEnv("MAVLINK_ENDPOINT", "/dev/ttyUSB0"),
			DefaultBaud:     getEnvAsInt("MAVLINK_BAUD", 57600),
			Simulation:      getEnvAsBool("SIMULATION_MODE", false),
		},
		Database: DatabaseConfig{
			Enabled:               getEnvAsBool("FLIGHTLOG_ENABLED", false),
			URL:                   os.Getenv("DATABASE_URL"),
			Host:                  getEnv("DB_HOST", "localhost"),
			Port:                  getEnv("DB_PORT", "5432"),
			Name:                  getEnv("DB_NAME", "gcs_flightlog"),
			User:                  getEnv("DB_USER", "gcs_user"),
			Password:              getEnv("DB_PASSWORD", "gcs_pass"),
			SSLMode:               getEnv("DB_SSLMODE", "disable"),
			MaxConnections:        getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConnections:    getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnectionMaxLifetime: getEnvAsDuration("DB_CONNECTION_MAX_LIFETIME", "5m"),
		},
		Auth: AuthConfig{
			Enabled:              getEnvAsBool("AUTH_ENABLED", false),
			JWTSecret:            GetSecret("JWT_SECRET", "dev-secret-key-change-in-production"),
			JWTAccessTokenTTL:    getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", "12h"),
			OperatorUser:         getEnv("OPERATOR_USER", "operator"),
			OperatorPasswordHash: GetSecret("OPERATOR_PASSWORD_HASH", ""),
		},
		Notify: NotifyConfig{
			MQTTBroker:   getEnv("MQTT_BROKER", ""),
			MQTTClientID: getEnv("MQTT_CLIENT_ID", "gcs-service"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.OperatorPasswordHash == "" {
		return errors.New("OPERATOR_PASSWORD_HASH is required when AUTH_ENABLED=true")
	}
	if c.Fleet.DefaultBaud <= 0 {
		return errors.New("MAVLINK_BAUD must be positive")
	}
	return nil
}

// ConnectionString returns the database connection string
func (d *DatabaseConfig) ConnectionString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		defaultDuration, _ := time.ParseDuration(defaultValue)
		return defaultDuration
	}
	return value
}
