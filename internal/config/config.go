package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database Database `envPrefix:"DATABASE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Razorpay Razorpay `envPrefix:"RAZORPAY_"`
	SMTP     SMTP     `envPrefix:"SMTP_"`
	JWT      JWT      `envPrefix:"JWT_"`
	OTP      OTP      `envPrefix:"OTP_"`
	Cart     Cart     `envPrefix:"CART_"`
	Notifier Notifier `envPrefix:"NOTIFIER_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// Database.Driver is either "sqlite" or "mysql".
type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	URL    string `env:"URL" envDefault:"storefront.db"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Razorpay struct {
	BaseApiURL string        `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID      string        `env:"KEY_ID"`
	KeySecret  string        `env:"KEY_SECRET"`
	Currency   string        `env:"CURRENCY" envDefault:"INR"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// SMTP with an empty Host falls back to logging outgoing mail.
type SMTP struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM" envDefault:"no-reply@storefront.local"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type JWT struct {
	Secret string        `env:"SECRET" envDefault:"change-me"`
	TTL    time.Duration `env:"TTL" envDefault:"24h"`
}

type OTP struct {
	TTL       time.Duration `env:"TTL" envDefault:"2m"`
	RateLimit float64       `env:"RATE_LIMIT" envDefault:"0.2"`
	Burst     int           `env:"BURST" envDefault:"3"`
}

type Cart struct {
	StorageTTL  time.Duration `env:"STORAGE_TTL" envDefault:"720h"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"15m"`
	MaxSessions int           `env:"MAX_SESSIONS" envDefault:"10000"`
}

type Notifier struct {
	QueueSize int `env:"QUEUE_SIZE" envDefault:"256"`
}
