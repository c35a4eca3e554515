package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort    string
	DBDSN         string
	SessionSecret string

	// Битрикс (входящий вебхук)
	CRMWebhookURL   string
	CRMCallDelay    time.Duration // обязательная пауза перед каждым вызовом
	CRMCallTimeout  time.Duration
	CRMRetryBase    time.Duration
	CRMMaxAttempts  int
	RetailCompanyID int64 // "розничная" компания для физлиц

	// стартовый админ для журнала заявок
	AdminUsername string
	AdminPassword string

	// SMTP для уведомлений (пустой хост выключает рассылку)
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
	MailTo   string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:    os.Getenv("SERVER_PORT"),
		DBDSN:         os.Getenv("DB_DSN"),
		SessionSecret: os.Getenv("SESSION_SECRET"),

		CRMWebhookURL:   os.Getenv("CRM_WEBHOOK_URL"),
		CRMCallDelay:    getDuration("CRM_CALL_DELAY", 700*time.Millisecond),
		CRMCallTimeout:  getDuration("CRM_CALL_TIMEOUT", 15*time.Second),
		CRMRetryBase:    getDuration("CRM_RETRY_BASE", 2*time.Second),
		CRMMaxAttempts:  getInt("CRM_MAX_ATTEMPTS", 3),
		RetailCompanyID: getInt64("CRM_RETAIL_COMPANY_ID", 0),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: os.Getenv("MAIL_FROM"),
		MailTo:   os.Getenv("MAIL_TO"),
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.CRMWebhookURL == "" {
		log.Fatal("CRM_WEBHOOK_URL is not set")
	}
	if cfg.RetailCompanyID == 0 {
		log.Fatal("CRM_RETAIL_COMPANY_ID is not set")
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin@broker.local"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "Admin123!"
	}

	return cfg
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("%s: invalid duration %q", key, raw)
	}
	return d
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("%s: invalid number %q", key, raw)
	}
	return n
}

func getInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("%s: invalid number %q", key, raw)
	}
	return n
}
