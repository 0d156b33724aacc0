package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"SafeHerAPI/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	MQTT     MQTTConfig
	Safety   SafetyConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxHeaderBytes  int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type MQTTConfig struct {
	Broker          string
	Port            int
	ClientID        string
	Username        string
	Password        string
	TranscriptTopic string
	VoiceTopic      string
	LocationTopic   string
	QoS             byte
	RetainMessages  bool
	KeepAlive       time.Duration
	ConnectTimeout  time.Duration
	AutoReconnect   bool
}

// SafetyConfig holds the detection and dispatch tuning knobs.
// EmergencyNumbers and CountryCallingCode are deliberately required:
// no region is ever assumed on the user's behalf.
type SafetyConfig struct {
	ThreatThreshold    float64
	CooldownWindow     time.Duration
	EndRestartBackoff  time.Duration
	ErrorRestartBackoff time.Duration
	PositionTimeout    time.Duration
	EmergencyNumbers   []string
	CountryCallingCode string
	ScreamTokens       bool
	MapsBaseURL        string
	GeocoderBaseURL    string
}

type SecurityConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	RateLimitPerMinute int
	EnableRateLimit    bool
}

type LoggingConfig struct {
	Level     logger.Level
	Mode      logger.Mode
	FilePath  string
	UseColors bool
}

var requiredEnvVars = []string{
	"DB_HOST",
	"DB_PORT",
	"DB_USER",
	"DB_PASSWORD",
	"DB_NAME",
	"MQTT_BROKER",
	"MQTT_PORT",
	"EMERGENCY_NUMBERS",
	"COUNTRY_CALLING_CODE",
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	if err := validateRequired(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:   loadServerConfig(),
		Database: loadDatabaseConfig(),
		MQTT:     loadMQTTConfig(),
		Safety:   loadSafetyConfig(),
		Security: loadSecurityConfig(),
		Logging:  loadLoggingConfig(),
	}

	return cfg, nil
}

func validateRequired() error {
	var missing []string

	for _, key := range requiredEnvVars {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		Port:            getEnvAsInt("SERVER_PORT", 8080),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", "15s"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", "10s"),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", "10s"),
		MaxHeaderBytes:  getEnvAsInt("MAX_HEADER_BYTES", 1048576),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "safeher_admin"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "safeher"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", "5m"),
	}
}

func loadMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Broker:          getEnv("MQTT_BROKER", "localhost"),
		Port:            getEnvAsInt("MQTT_PORT", 1883),
		ClientID:        getEnv("MQTT_CLIENT_ID", "safeher-backend"),
		Username:        getEnv("MQTT_USERNAME", ""),
		Password:        getEnv("MQTT_PASSWORD", ""),
		TranscriptTopic: getEnv("MQTT_TRANSCRIPT_TOPIC", "safeher/devices/+/transcript"),
		VoiceTopic:      getEnv("MQTT_VOICE_TOPIC", "safeher/devices/+/voice"),
		LocationTopic:   getEnv("MQTT_LOCATION_TOPIC", "safeher/devices/+/location"),
		QoS:             byte(getEnvAsInt("MQTT_QOS", 1)),
		RetainMessages:  getEnvAsBool("MQTT_RETAIN", false),
		KeepAlive:       getEnvAsDuration("MQTT_KEEP_ALIVE", "60s"),
		ConnectTimeout:  getEnvAsDuration("MQTT_CONNECT_TIMEOUT", "10s"),
		AutoReconnect:   getEnvAsBool("MQTT_AUTO_RECONNECT", true),
	}
}

func loadSafetyConfig() SafetyConfig {
	numbers := strings.Split(getEnv("EMERGENCY_NUMBERS", ""), ",")
	for i := range numbers {
		numbers[i] = strings.TrimSpace(numbers[i])
	}

	return SafetyConfig{
		ThreatThreshold:     getEnvAsFloat("THREAT_THRESHOLD", 0.3),
		CooldownWindow:      getEnvAsDuration("ALERT_COOLDOWN_WINDOW", "10s"),
		EndRestartBackoff:   getEnvAsDuration("LISTENER_END_BACKOFF", "3s"),
		ErrorRestartBackoff: getEnvAsDuration("LISTENER_ERROR_BACKOFF", "5s"),
		PositionTimeout:     getEnvAsDuration("POSITION_TIMEOUT", "10s"),
		EmergencyNumbers:    numbers,
		CountryCallingCode:  strings.TrimPrefix(getEnv("COUNTRY_CALLING_CODE", ""), "+"),
		ScreamTokens:        getEnvAsBool("SCREAM_TOKENS", true),
		MapsBaseURL:         getEnv("MAPS_BASE_URL", "https://www.google.com/maps"),
		GeocoderBaseURL:     getEnv("GEOCODER_BASE_URL", ""),
	}
}

func loadSecurityConfig() SecurityConfig {
	origins := getEnv("CORS_ALLOWED_ORIGINS", "*")
	methods := getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")

	return SecurityConfig{
		CORSAllowedOrigins: strings.Split(origins, ","),
		CORSAllowedMethods: strings.Split(methods, ","),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		EnableRateLimit:    getEnvAsBool("ENABLE_RATE_LIMIT", true),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:     logger.ParseLevel(getEnv("LOG_LEVEL", "info")),
		Mode:      logger.ParseMode(getEnv("LOG_MODE", "normal")),
		FilePath:  getEnv("LOG_FILE_PATH", ""),
		UseColors: getEnvAsBool("LOG_USE_COLORS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func (c *Config) Validate() error {
	var errors []string

	if c.Database.Password == "" {
		errors = append(errors, "DB_PASSWORD cannot be empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}

	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		errors = append(errors, "MQTT_PORT must be between 1 and 65535")
	}

	if c.Safety.ThreatThreshold < 0 || c.Safety.ThreatThreshold >= 1 {
		errors = append(errors, "THREAT_THRESHOLD must be in [0, 1)")
	}

	if len(c.Safety.EmergencyNumbers) == 0 || c.Safety.EmergencyNumbers[0] == "" {
		errors = append(errors, "EMERGENCY_NUMBERS must list at least one number")
	}

	if c.Safety.CountryCallingCode == "" {
		errors = append(errors, "COUNTRY_CALLING_CODE cannot be empty")
	} else {
		for _, r := range c.Safety.CountryCallingCode {
			if r < '0' || r > '9' {
				errors = append(errors, "COUNTRY_CALLING_CODE must be digits only")
				break
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func (c *Config) Print() {
	fmt.Println("╔══════════════════════════════════════════════════════════╗")
	fmt.Println("║              SafeHer API - Configuration                 ║")
	fmt.Println("╚══════════════════════════════════════════════════════════╝")
	fmt.Printf("Environment:     %s\n", c.Server.Environment)
	fmt.Printf("Server:          %s:%d\n", c.Server.Host, c.Server.Port)
	fmt.Printf("Database:        %s:%d/%s\n", c.Database.Host, c.Database.Port, c.Database.Database)
	fmt.Printf("MQTT Broker:     %s:%d\n", c.MQTT.Broker, c.MQTT.Port)
	fmt.Printf("Emergency nums:  %s\n", strings.Join(c.Safety.EmergencyNumbers, ", "))
	fmt.Println("──────────────────────────────────────────────────────────")
}
