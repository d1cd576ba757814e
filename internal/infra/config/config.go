package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	// JWTKey is the shared HS256 signing key, extracted from the same
	// HASURA_GRAPHQL_JWT_SECRET JSON the downstream GraphQL engine consumes.
	JWTKey string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	HTTPAddress  string
	CookieDomain string

	AllowedOrigins   []string
	AllowCredentials bool

	// Redis is optional; when RedisAddress is set the refresh-token store
	// moves from postgres to redis.
	RedisAddress  string
	RedisPassword string
	RedisDB       int
}

type jwtSecret struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	for _, key := range []string{
		"DATABASE_URL",
		"HASURA_GRAPHQL_JWT_SECRET",
		"ACCESS_TOKEN_TTL",
		"REFRESH_TOKEN_TTL",
		"HTTP_ADDRESS",
		"COOKIE_DOMAIN",
		"ALLOWED_ORIGINS",
		"ALLOW_CREDENTIALS",
		"REDIS_ADDRESS",
		"REDIS_PASSWORD",
		"REDIS_DB",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("ACCESS_TOKEN_TTL", "15m")
	viper.SetDefault("REFRESH_TOKEN_TTL", "168h")
	viper.SetDefault("HTTP_ADDRESS", ":3000")
	viper.SetDefault("ALLOW_CREDENTIALS", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	rawSecret := viper.GetString("HASURA_GRAPHQL_JWT_SECRET")
	if rawSecret == "" {
		return nil, fmt.Errorf("HASURA_GRAPHQL_JWT_SECRET is not set")
	}
	var secret jwtSecret
	if err := json.Unmarshal([]byte(rawSecret), &secret); err != nil {
		return nil, fmt.Errorf("HASURA_GRAPHQL_JWT_SECRET is not valid JSON: %w", err)
	}
	if secret.Key == "" {
		return nil, fmt.Errorf("HASURA_GRAPHQL_JWT_SECRET has no key")
	}

	return &Config{
		DatabaseURL:      dbURL,
		JWTKey:           secret.Key,
		AccessTokenTTL:   viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  viper.GetDuration("REFRESH_TOKEN_TTL"),
		HTTPAddress:      viper.GetString("HTTP_ADDRESS"),
		CookieDomain:     viper.GetString("COOKIE_DOMAIN"),
		AllowedOrigins:   viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: viper.GetBool("ALLOW_CREDENTIALS"),
		RedisAddress:     viper.GetString("REDIS_ADDRESS"),
		RedisPassword:    viper.GetString("REDIS_PASSWORD"),
		RedisDB:          viper.GetInt("REDIS_DB"),
	}, nil
}
