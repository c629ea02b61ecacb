package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultMongoURI = "mongodb://127.0.0.1:27017"

var ErrMissingSecret = errors.New("ACCESS_TOKEN_SECRET must be set")

type Config struct {
	Port    string
	GinMode string

	MongoURI string
	DBName   string

	TokenSecret string
	TokenTTL    time.Duration

	StripeSecretKey string
	CloudinaryURL   string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	CORSOrigins        []string
	RateLimitPerMinute int
	LogLevel           string
}

// Release reports whether the service runs in production mode.
func (c *Config) Release() bool {
	return c.GinMode == "release"
}

// PushEnabled reports whether both VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the variables directly.
	_ = godotenv.Load()

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3000")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_NAME", "EliteExplore")
	v.SetDefault("TOKEN_TTL", "10h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,https://elite-explore.netlify.app")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VAPID_SUBJECT", "mailto:admin@elite-explore.app")
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	ttl, err := time.ParseDuration(v.GetString("TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		GinMode:            v.GetString("GIN_MODE"),
		MongoURI:           mongoURI(v),
		DBName:             v.GetString("DB_NAME"),
		TokenSecret:        v.GetString("ACCESS_TOKEN_SECRET"),
		TokenTTL:           ttl,
		StripeSecretKey:    v.GetString("STRIPE_SECRET_KEY"),
		CloudinaryURL:      v.GetString("CLOUDINARY_URL"),
		VAPIDPublicKey:     v.GetString("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey:    v.GetString("VAPID_PRIVATE_KEY"),
		VAPIDSubject:       v.GetString("VAPID_SUBJECT"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}

	if cfg.TokenSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 120
	}

	return cfg, nil
}

// mongoURI prefers MONGODB_URI, then an Atlas SRV string assembled from
// DB_USERNAME, DB_PASSWORD and DB_CLUSTER, then a local server.
func mongoURI(v *viper.Viper) string {
	if uri := v.GetString("MONGODB_URI"); uri != "" {
		return uri
	}

	user := v.GetString("DB_USERNAME")
	pass := v.GetString("DB_PASSWORD")
	cluster := v.GetString("DB_CLUSTER")
	if user == "" || pass == "" || cluster == "" {
		return defaultMongoURI
	}

	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     cluster,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
