package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Stripe.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	Currency            string `mapstructure:"CURRENCY"`

	// Checkout behaviour.
	CheckoutSessionTTL     time.Duration `mapstructure:"CHECKOUT_SESSION_TTL"`
	CheckoutLookupTimeout  time.Duration `mapstructure:"CHECKOUT_LOOKUP_TIMEOUT"`
	CheckoutPaymentTimeout time.Duration `mapstructure:"CHECKOUT_PAYMENT_TIMEOUT"`
	AtomicSettlement       bool          `mapstructure:"CHECKOUT_ATOMIC_SETTLEMENT"`
	CouponCacheTTL         time.Duration `mapstructure:"COUPON_CACHE_TTL"`
	SummaryCacheTTL        time.Duration `mapstructure:"SUMMARY_CACHE_TTL"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
}

// chargeCurrencies are the processor currencies with two minor-unit digits.
// Amounts are converted to minor units by multiplying by 100, so zero- and
// three-decimal currencies are refused.
var chargeCurrencies = map[string]bool{
	"usd": true, "eur": true, "gbp": true, "cad": true, "aud": true, "nzd": true,
	"chf": true, "sek": true, "nok": true, "dkk": true, "pln": true, "sgd": true,
	"hkd": true, "mxn": true, "brl": true, "zar": true, "kes": true, "inr": true,
}

// Validate normalizes the currency and checks the checkout settings.
func (c *Config) Validate() error {
	c.Currency = strings.ToLower(strings.TrimSpace(c.Currency))
	if !chargeCurrencies[c.Currency] {
		return fmt.Errorf("CURRENCY %q is not a supported two-decimal currency", c.Currency)
	}
	if c.CheckoutSessionTTL <= 0 || c.CheckoutLookupTimeout <= 0 || c.CheckoutPaymentTimeout <= 0 {
		return fmt.Errorf("checkout durations must be positive")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "sportivox")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("ADMIN_TOKEN", "")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_SESSION_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)

	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("CURRENCY", "usd")

	viper.SetDefault("CHECKOUT_SESSION_TTL", 30*time.Minute)
	viper.SetDefault("CHECKOUT_LOOKUP_TIMEOUT", 5*time.Second)
	viper.SetDefault("CHECKOUT_PAYMENT_TIMEOUT", 30*time.Second)
	viper.SetDefault("CHECKOUT_ATOMIC_SETTLEMENT", true)
	viper.SetDefault("COUPON_CACHE_TTL", 10*time.Minute)
	viper.SetDefault("SUMMARY_CACHE_TTL", 5*time.Minute)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
