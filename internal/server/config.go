package server

import (
	"os"
	"strconv"
	"time"
)

// Config holds server configuration from environment variables.
type Config struct {
	Port                string
	APIKey              string
	AllowInsecureNoAuth bool

	AWSRegion      string
	AWSEndpointURL string // For LocalStack
	DynamoDBTable  string
	EventsQueue    string // empty = event publishing disabled

	Workflow          string
	BootstrapAdminID  string // empty = no admin seeded at startup
	SweepSchedule     string
	SweepOverdueAfter time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig reads configuration from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		Port:                getEnv("JOBTRACK_PORT", "8080"),
		APIKey:              getEnv("JOBTRACK_API_KEY", ""),
		AllowInsecureNoAuth: getEnvBool("JOBTRACK_ALLOW_INSECURE_NO_AUTH", false),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:      getEnv("AWS_ENDPOINT_URL", ""), // Empty = real AWS
		DynamoDBTable:       getEnv("DYNAMODB_TABLE", "jobtrack-jobs"),
		EventsQueue:         getEnv("JOBTRACK_EVENTS_QUEUE", ""),
		Workflow:            getEnv("JOBTRACK_WORKFLOW", "standard"),
		BootstrapAdminID:    getEnv("JOBTRACK_BOOTSTRAP_ADMIN", ""),
		SweepSchedule:       getEnv("JOBTRACK_SWEEP_SCHEDULE", "*/10 * * * *"),
		SweepOverdueAfter:   getEnvDuration("JOBTRACK_SWEEP_OVERDUE_AFTER", 4*time.Hour),
		ReadTimeout:         getEnvDuration("JOBTRACK_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:        getEnvDuration("JOBTRACK_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:         getEnvDuration("JOBTRACK_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:     getEnvDuration("JOBTRACK_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
