package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment       string
	MongoDBURL        string
	MongoDatabase     string
	RedisURL          string
	RedisPassword     string
	NATSURL           string
	SubmissionSubject string
	AwardSubject      string
	LeaderboardQuery  string
	StatsQuery        string
	BadgeQuery        string
	CacheTTLSeconds   int
	PassingThreshold  float64
	SyncSpec          string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment values")
	}
	config := Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		MongoDBURL:        getEnv("MONGODBURL", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODATABASE", "classboard_db"),
		RedisURL:          getEnv("REDISURL", "localhost:6379"),
		RedisPassword:     getEnv("REDISPASSWORD", ""),
		NATSURL:           getEnv("NATSURL", "nats://localhost:4222"),
		SubmissionSubject: getEnv("SUBMISSIONSUBJECT", "submission.finalized"),
		AwardSubject:      getEnv("AWARDSUBJECT", "badge.awarded"),
		LeaderboardQuery:  getEnv("LEADERBOARDQUERY", "leaderboard.get"),
		StatsQuery:        getEnv("STATSQUERY", "stats.get"),
		BadgeQuery:        getEnv("BADGEQUERY", "badge.get"),
		CacheTTLSeconds:   getEnvInt("CACHETTLSECONDS", 30),
		PassingThreshold:  getEnvFloat("PASSINGTHRESHOLD", 60),
		SyncSpec:          getEnv("SYNCSPEC", "@every 1h"),
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
