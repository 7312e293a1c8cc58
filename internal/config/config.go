package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	// Document storage. StorageDriver is one of "supabase", "minio", "s3".
	StorageDriver     string
	RFPBucket         string
	BidBucket         string
	SupabaseURL       string
	SupabaseSecretKey string // service_role key, the anon key cannot write to storage
	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOUseSSL       bool
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	MaxUploadMB       int

	ReferencePrefix  string // RFP reference numbers look like PREFIX-2024-0001
	SendinblueAPIKey string // Brevo key for award emails; empty disables email
	MailFrom         string
	PortalURL        string // frontend base URL used in email links

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", "supabase")
	v.SetDefault("RFP_BUCKET", "rfp-documents")
	v.SetDefault("BID_BUCKET", "bid-documents")
	v.SetDefault("MAX_UPLOAD_MB", 25)
	v.SetDefault("REFERENCE_PREFIX", "RFP")
	v.SetDefault("MAIL_FROM", "noreply@procurement.local")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("PORTAL_URL", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	env := v.GetString("APP_ENV")
	dbURL := v.GetString("DATABASE_URL")
	if dbURL == "" {
		switch env {
		case "production":
			dbURL = v.GetString("DATABASE_URL_PROD")
		case "test":
			dbURL = v.GetString("DATABASE_URL_TEST")
		default:
			dbURL = v.GetString("DATABASE_URL_DEV")
		}
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		StorageDriver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
		RFPBucket:           v.GetString("RFP_BUCKET"),
		BidBucket:           v.GetString("BID_BUCKET"),
		SupabaseURL:         v.GetString("SUPABASE_URL"),
		SupabaseSecretKey:   v.GetString("SUPABASE_SECRET_KEY"),
		MinIOEndpoint:       v.GetString("MINIO_ENDPOINT"),
		MinIOAccessKey:      v.GetString("MINIO_ACCESS_KEY"),
		MinIOSecretKey:      v.GetString("MINIO_SECRET_KEY"),
		MinIOUseSSL:         v.GetBool("MINIO_USE_SSL"),
		S3Region:            v.GetString("S3_REGION"),
		S3AccessKeyID:       v.GetString("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:   v.GetString("S3_SECRET_ACCESS_KEY"),
		MaxUploadMB:         v.GetInt("MAX_UPLOAD_MB"),
		ReferencePrefix:     v.GetString("REFERENCE_PREFIX"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		PortalURL:           strings.TrimRight(v.GetString("PORTAL_URL"), "/"),
		RateLimitRPS:        v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:      v.GetInt("RATE_LIMIT_BURST"),
	}, nil
}

// IsProduction reports whether the service runs with production cookies and logging.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
