package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"cupcake/internal/domain/delivery"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL string // 指定があればPOSTGRES_*より優先

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string // disable/require

	JWTSecret string // IdPと共有する署名シークレット

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORS）

	RedisAddr string // 空ならCEPキャッシュなし

	CEPBaseURL string
	CEPTimeout time.Duration

	DeliveryRegions   []delivery.Region
	IdempotencyWindow time.Duration

	Seed bool
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: getEnv("GO_ENV", "dev"),
		FEURL: os.Getenv("FE_URL"),

		RedisAddr:  os.Getenv("REDIS_ADDR"),
		CEPBaseURL: getEnv("CEP_BASE_URL", "https://viacep.com.br/ws"),
	}

	var err error
	if cfg.DatabaseURL == "" {
		if cfg.PostgresPort, err = atoiOr("POSTGRES_PORT", 5432); err != nil {
			return Config{}, err
		}
		//必須チェック
		for key, v := range map[string]string{
			"POSTGRES_USER":     cfg.PostgresUser,
			"POSTGRES_PASSWORD": cfg.PostgresPassword,
			"POSTGRES_DB":       cfg.PostgresDB,
			"POSTGRES_HOST":     cfg.PostgresHost,
		} {
			if v == "" {
				return Config{}, fmt.Errorf("%s is required", key)
			}
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.CEPTimeout, err = durationOr("CEP_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyWindow, err = durationOr("IDEMPOTENCY_WINDOW", 24*time.Hour); err != nil {
		return Config{}, err
	}

	cfg.DeliveryRegions = []delivery.Region{delivery.DefaultRegion}
	if v := os.Getenv("DELIVERY_REGIONS"); v != "" {
		regions, err := delivery.ParseRegions(v)
		if err != nil {
			return Config{}, fmt.Errorf("DELIVERY_REGIONS: %w", err)
		}
		cfg.DeliveryRegions = regions
	}

	if v := os.Getenv("SEED"); v != "" {
		if cfg.Seed, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("SEED must be bool: %w", err)
		}
	}

	return cfg, nil
}

// DSN はDATABASE_URLがあればそれを使う
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration (e.g. 5s)", key)
	}
	return d, nil
}
