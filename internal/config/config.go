package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Ebay     EbayConfig
	Keepa    KeepaConfig
	Scan     ScanConfig
	Fees     FeeConfig
	Decision DecisionConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// EbayConfig holds the marketplace API credentials and endpoints.
type EbayConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	BaseURL      string `mapstructure:"base_url"`
	AuthURL      string `mapstructure:"auth_url"`
}

// KeepaConfig holds the product-data API settings.
type KeepaConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ScanConfig defines the default scan parameters and candidate caps.
type ScanConfig struct {
	Query          string   `mapstructure:"query"`
	Sellers        []string `mapstructure:"sellers"`
	Conditions     []string `mapstructure:"conditions"`
	MinPriceCents  int      `mapstructure:"min_price_cents"`
	MaxPriceCents  int      `mapstructure:"max_price_cents"`
	MaxAgeDays     int      `mapstructure:"max_age_days"`
	Limit          int      `mapstructure:"limit"`
	IsbnProbeLimit int      `mapstructure:"isbn_probe_limit"`
	EnrichLimit    int      `mapstructure:"enrich_limit"`
	Schedule       string   `mapstructure:"schedule"`
}

// FeeConfig holds the fee policy. Rates are fractions, fixed fees cents.
type FeeConfig struct {
	ReferralRate        float64 `mapstructure:"referral_rate"`
	FBAFulfillmentCents int     `mapstructure:"fba_fulfillment_cents"`
	InboundCents        int     `mapstructure:"inbound_cents"`
	FBMClosingCents     int     `mapstructure:"fbm_closing_cents"`
	FBMShippingCents    int     `mapstructure:"fbm_shipping_cents"`
	MarketplaceRate     float64 `mapstructure:"marketplace_rate"`
}

// DecisionConfig holds the knockout thresholds and verdict cut lines.
type DecisionConfig struct {
	MinProfitCents  int `mapstructure:"min_profit_cents"`
	MinROI          int `mapstructure:"min_roi"`
	MaxSalesRank    int `mapstructure:"max_sales_rank"`
	MinSalesDrops30 int `mapstructure:"min_sales_drops30"`
	BuyScore        int `mapstructure:"buy_score"`
	ReviewScore     int `mapstructure:"review_score"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig defines the dashboard API server settings.
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DefaultFees returns the fee policy the profit math was tuned with.
func DefaultFees() FeeConfig {
	return FeeConfig{
		ReferralRate:        0.15,
		FBAFulfillmentCents: 354,
		InboundCents:        50,
		FBMClosingCents:     180,
		FBMShippingCents:    399,
		MarketplaceRate:     0.13,
	}
}

// DefaultDecision returns the empirically tuned decision thresholds.
func DefaultDecision() DecisionConfig {
	return DecisionConfig{
		MinProfitCents:  300,
		MinROI:          30,
		MaxSalesRank:    3000000,
		MinSalesDrops30: 2,
		BuyScore:        70,
		ReviewScore:     50,
	}
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("ebay.base_url", "https://api.ebay.com")
	viper.SetDefault("ebay.auth_url", "https://api.ebay.com/identity/v1/oauth2/token")
	viper.SetDefault("keepa.base_url", "https://api.keepa.com")
	viper.SetDefault("scan.limit", 50)
	viper.SetDefault("scan.isbn_probe_limit", 20)
	viper.SetDefault("scan.enrich_limit", 8)
	viper.SetDefault("scan.max_age_days", 7)
	viper.SetDefault("server.port", 8080)

	fees := DefaultFees()
	viper.SetDefault("fees.referral_rate", fees.ReferralRate)
	viper.SetDefault("fees.fba_fulfillment_cents", fees.FBAFulfillmentCents)
	viper.SetDefault("fees.inbound_cents", fees.InboundCents)
	viper.SetDefault("fees.fbm_closing_cents", fees.FBMClosingCents)
	viper.SetDefault("fees.fbm_shipping_cents", fees.FBMShippingCents)
	viper.SetDefault("fees.marketplace_rate", fees.MarketplaceRate)

	decision := DefaultDecision()
	viper.SetDefault("decision.min_profit_cents", decision.MinProfitCents)
	viper.SetDefault("decision.min_roi", decision.MinROI)
	viper.SetDefault("decision.max_sales_rank", decision.MaxSalesRank)
	viper.SetDefault("decision.min_sales_drops30", decision.MinSalesDrops30)
	viper.SetDefault("decision.buy_score", decision.BuyScore)
	viper.SetDefault("decision.review_score", decision.ReviewScore)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
