package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the API.
type Config struct {
	ProjectID      string
	Port           string
	AllowedOrigins []string
	StorageBucket  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables using Viper.
func Load() (Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)

	viper.BindEnv("PORT")
	viper.BindEnv("ALLOWED_ORIGINS")
	viper.BindEnv("FIREBASE_PROJECT_ID")
	viper.BindEnv("GOOGLE_CLOUD_PROJECT")
	viper.BindEnv("FIREBASE_STORAGE_BUCKET")
	viper.BindEnv("REDIS_ADDR")
	viper.BindEnv("REDIS_PASSWORD")
	viper.BindEnv("REDIS_DB")

	projectID := viper.GetString("FIREBASE_PROJECT_ID")
	if projectID == "" {
		projectID = viper.GetString("GOOGLE_CLOUD_PROJECT")
	}
	if projectID == "" {
		return Config{}, errors.New("FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT is required")
	}

	bucket := viper.GetString("FIREBASE_STORAGE_BUCKET")
	if bucket == "" {
		bucket = projectID + ".appspot.com"
	}

	allowed := []string{}
	for _, o := range strings.Split(viper.GetString("ALLOWED_ORIGINS"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed = append(allowed, o)
		}
	}

	return Config{
		ProjectID:      projectID,
		Port:           viper.GetString("PORT"),
		AllowedOrigins: allowed,
		StorageBucket:  bucket,
		RedisAddr:      viper.GetString("REDIS_ADDR"),
		RedisPassword:  viper.GetString("REDIS_PASSWORD"),
		RedisDB:        viper.GetInt("REDIS_DB"),
	}, nil
}
