package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort       string        // Application port
	DBDriver      string        // sqlite or mysql
	DBPath        string        // SQLite file path
	DBUser        string        // Database user
	DBPassword    string        // Database password
	DBHost        string        // Database host
	DBPort        string        // Database port
	DBName        string        // Database name
	JWTSecret     string        // JWT secret key
	RedisAddr     string        // Redis server address, empty for in-memory cache
	RedisPass     string        // Redis password
	RedisDB       int           // Redis database number
	NATSURL       string        // NATS server URL, empty to log events only
	CacheTTL      time.Duration // Read model cache lifetime
	AdminUsername string        // Seeded admin username
	AdminPassword string        // Seeded admin password
	IsProd        bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	ttl, err := strconv.Atoi(os.Getenv("CACHE_TTL_SECONDS"))
	if err != nil || ttl <= 0 {
		ttl = 60 // Same lifetime the list endpoints always used
	}
	return &Config{
		AppPort:       getenv("APP_PORT", "8080"),
		DBDriver:      getenv("DB_DRIVER", "sqlite"),
		DBPath:        getenv("DB_PATH", "club.db"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPass:     os.Getenv("REDIS_PASS"),
		RedisDB:       redisDB,
		NATSURL:       os.Getenv("NATS_URL"),
		CacheTTL:      time.Duration(ttl) * time.Second,
		AdminUsername: getenv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		IsProd:        os.Getenv("IS_PROD") == "true",
	}
}

// MySQLDSN builds the Data Source Name for the MySQL driver
func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
