package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Transcription provider settings
	DeepgramAPIKey          string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramBaseURL         string `envconfig:"DEEPGRAM_BASE_URL" default:"https://api.deepgram.com"`
	TranscriptionTimeoutSec int    `envconfig:"TRANSCRIPTION_TIMEOUT_SEC" default:"300"`

	// Content generation settings
	GeminiAPIKey         string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiModel          string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GenerationTimeoutSec int    `envconfig:"GENERATION_TIMEOUT_SEC" default:"120"`

	// Media resolver sidecar settings
	ResolverBaseURL    string `envconfig:"RESOLVER_BASE_URL" required:"true"`
	ResolverTimeoutSec int    `envconfig:"RESOLVER_TIMEOUT_SEC" default:"120"`

	// X (Twitter) API settings; posting is disabled when the token is empty
	TwitterBaseURL     string `envconfig:"TWITTER_BASE_URL" default:"https://api.twitter.com/2"`
	TwitterAccessToken string `envconfig:"TWITTER_ACCESS_TOKEN" default:""`
	TwitterUsername    string `envconfig:"TWITTER_USERNAME" default:""`

	// Billing webhook settings
	BillingWebhookSecret string `envconfig:"BILLING_WEBHOOK_SECRET" required:"true"`
	UpgradeURL           string `envconfig:"UPGRADE_URL" default:"https://quikthread.com/pricing"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
