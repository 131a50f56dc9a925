package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fintower/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Backend selection
	DataBackend string

	// Classifier
	GeminiAPIKey string
	GeminiModel  string

	// Telegram
	TelegramToken        string
	TelegramAPIBase      string
	TelegramPollInterval time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration

	// Budget parameters (AED)
	MonthlySalary    core.Money
	FixedCosts       core.Money
	EmergencyFundPct int
	SavingsPct       int
	GoldMonthly      core.Money
	GoldPricePerGram core.Money

	// Manual balances (AED)
	OpeningSavings   core.Money
	ManualAssets     core.Money
	RealEstateValue  core.Money
	OtherLiabilities core.Money
	MortgageBalance  core.Money
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintower.db"),
		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		TelegramToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIBase:      getEnv("TELEGRAM_API_BASE", ""),
		TelegramPollInterval: getEnvDuration("TELEGRAM_POLL_INTERVAL", time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintower"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_transactions"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		MonthlySalary:    getEnvMoney("MONTHLY_SALARY", core.Money{Cents: 4000000}),
		FixedCosts:       getEnvMoney("FIXED_COSTS", core.Money{Cents: 2000000}),
		EmergencyFundPct: getEnvInt("EMERGENCY_FUND_PCT", 10),
		SavingsPct:       getEnvInt("SAVINGS_PCT", 10),
		GoldMonthly:      getEnvMoney("GOLD_MONTHLY", core.Money{Cents: 100000}),
		GoldPricePerGram: getEnvMoney("GOLD_PRICE_PER_GRAM", core.DefaultGoldPricePerGram),

		OpeningSavings:   getEnvMoney("OPENING_SAVINGS", core.Money{}),
		ManualAssets:     getEnvMoney("MANUAL_ASSETS", core.Money{}),
		RealEstateValue:  getEnvMoney("REAL_ESTATE_VALUE", core.Money{}),
		OtherLiabilities: getEnvMoney("OTHER_LIABILITIES", core.Money{}),
		MortgageBalance:  getEnvMoney("MORTGAGE_BALANCE", core.Money{}),
	}

	return cfg
}

// BudgetParams assembles the engine inputs from the loaded values.
func (c *Config) BudgetParams() core.BudgetParams {
	return core.BudgetParams{
		MonthlySalary:    c.MonthlySalary,
		FixedCosts:       c.FixedCosts,
		EmergencyFundPct: c.EmergencyFundPct,
		SavingsPct:       c.SavingsPct,
		GoldMonthly:      c.GoldMonthly,
	}
}

// Balances assembles the manual account figures from the loaded values.
func (c *Config) Balances() core.Balances {
	return core.Balances{
		OpeningSavings:   c.OpeningSavings,
		ManualAssets:     c.ManualAssets,
		RealEstateValue:  c.RealEstateValue,
		OtherLiabilities: c.OtherLiabilities,
		MortgageBalance:  c.MortgageBalance,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate budget parameters
	if c.MonthlySalary.Cents < 0 {
		errors = append(errors, "monthly salary cannot be negative")
	}
	if c.FixedCosts.Cents < 0 {
		errors = append(errors, "fixed costs cannot be negative")
	}
	if c.EmergencyFundPct < 0 || c.EmergencyFundPct > 100 {
		errors = append(errors, fmt.Sprintf("invalid emergency fund percentage %d: must be between 0 and 100", c.EmergencyFundPct))
	}
	if c.SavingsPct < 0 || c.SavingsPct > 100 {
		errors = append(errors, fmt.Sprintf("invalid savings percentage %d: must be between 0 and 100", c.SavingsPct))
	}
	if c.GoldPricePerGram.Cents <= 0 {
		errors = append(errors, "gold price per gram must be positive")
	}

	// Validate telegram polling configuration if a token is set
	if c.TelegramToken != "" && c.TelegramPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid telegram poll interval %v: must be at least 1 second", c.TelegramPollInterval))
	}

	// Validate worker configuration
	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvMoney(key string, defaultValue core.Money) core.Money {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if value == "0" {
		return core.Money{}
	}
	if cents, err := core.ParseDecimalToCents(value); err == nil {
		return core.Money{Cents: cents}
	}
	return defaultValue
}
