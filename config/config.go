package config

import (
	"log"

	"github.com/spf13/viper"

	"denticare/models"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Mongo configuration.
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Scheduling configuration.
	ClinicName                 string `mapstructure:"CLINIC_NAME"`
	DefaultProviderID          string `mapstructure:"DEFAULT_PROVIDER_ID"`
	AppointmentDurationMinutes int    `mapstructure:"APPOINTMENT_DURATION_MINUTES"`

	// Conversation configuration.
	SessionIdleTimeoutMinutes int `mapstructure:"SESSION_IDLE_TIMEOUT_MINUTES"`
	SessionRetentionHours     int `mapstructure:"SESSION_RETENTION_HOURS"`

	// Annealing configuration.
	AnnealingMinOccurrences int `mapstructure:"ANNEALING_MIN_OCCURRENCES"`
	AnnealingWindowDays     int `mapstructure:"ANNEALING_WINDOW_DAYS"`

	// Upstream AI configuration.
	GeminiAPIKey             string  `mapstructure:"GEMINI_API_KEY"`
	GoogleServiceAccountFile string  `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	IntentConfidenceFloor    float64 `mapstructure:"INTENT_CONFIDENCE_FLOOR"`

	// Providers and their weekly hours, loaded from the yaml "providers" key.
	Providers []models.Provider `mapstructure:"providers"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "denticare")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("CLINIC_NAME", "Denticare Dental Practice")
	viper.SetDefault("DEFAULT_PROVIDER_ID", "dr-default")
	viper.SetDefault("APPOINTMENT_DURATION_MINUTES", 30)
	viper.SetDefault("SESSION_IDLE_TIMEOUT_MINUTES", 30)
	viper.SetDefault("SESSION_RETENTION_HOURS", 24)
	viper.SetDefault("ANNEALING_MIN_OCCURRENCES", 2)
	viper.SetDefault("ANNEALING_WINDOW_DAYS", 7)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	viper.SetDefault("INTENT_CONFIDENCE_FLOOR", 0.5)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if len(AppConfig.Providers) == 0 {
		AppConfig.Providers = []models.Provider{defaultProvider()}
	}
}

// defaultProvider mirrors the clinic's standard schedule: weekdays 9-5,
// Saturday 9-1, closed Sunday.
func defaultProvider() models.Provider {
	weekday := []models.WorkInterval{{Start: 540, End: 1020}}
	return models.Provider{
		ID:   AppConfig.DefaultProviderID,
		Name: "Default Provider",
		Hours: map[string][]models.WorkInterval{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  {{Start: 540, End: 780}},
		},
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
