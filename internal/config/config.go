package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	GoEnv string // dev/prod

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	StorageDriver string // postgres / memory

	JWTSecret    string        // JWT署名シークレット
	JWTTTL       time.Duration // 管理画面トークンの有効期限
	CookieSecure bool

	AdminEmail    string // 起動時に作る管理者
	AdminPassword string

	CartSessionIdleTTL time.Duration // メモリ上のセッションを外すまで
	CartSweepInterval  time.Duration

	PaymentPublicKey string // 決済ウィジェットに渡す公開鍵

	LogLevel        string
	ShutdownTimeout time.Duration
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.GoEnv, "prod")
}

// ":8080" の形
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DSN は DATABASE_URL か POSTGRES_* から組み立てる。
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Loadは.env（あれば）と環境変数
func Load() (Config, error) {
	// .env は無くてもよい
	_ = godotenv.Load()

	return FromEnv(os.Getenv)
}

// FromEnvはgetenvから読み取る（テスト用に分けている）
func FromEnv(getenv func(string) string) (Config, error) {
	pgPort, err := intOrDefault(getenv, "POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	jwtTTL, err := durationOrDefault(getenv, "JWT_TTL", 12*time.Hour)
	if err != nil {
		return Config{}, err
	}
	idleTTL, err := durationOrDefault(getenv, "CART_SESSION_IDLE_TTL", 2*time.Hour)
	if err != nil {
		return Config{}, err
	}
	sweep, err := durationOrDefault(getenv, "CART_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	shutdown, err := durationOrDefault(getenv, "SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  valueOrDefault(getenv, "PORT", "8080"),
		GoEnv: valueOrDefault(getenv, "GO_ENV", "dev"),

		DatabaseURL:      getenv("DATABASE_URL"),
		PostgresUser:     valueOrDefault(getenv, "POSTGRES_USER", "postgres"),
		PostgresPassword: valueOrDefault(getenv, "POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       valueOrDefault(getenv, "POSTGRES_DB", "lifeline"),
		PostgresHost:     valueOrDefault(getenv, "POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  valueOrDefault(getenv, "POSTGRES_SSLMODE", "disable"),

		StorageDriver: strings.ToLower(valueOrDefault(getenv, "STORAGE_DRIVER", StorageDriverPostgres)),

		JWTSecret:    getenv("JWT_SECRET"),
		JWTTTL:       jwtTTL,
		CookieSecure: boolOrDefault(getenv, "COOKIE_SECURE", true),

		AdminEmail:    strings.TrimSpace(getenv("ADMIN_EMAIL")),
		AdminPassword: getenv("ADMIN_PASSWORD"),

		CartSessionIdleTTL: idleTTL,
		CartSweepInterval:  sweep,

		PaymentPublicKey: getenv("PAYMENT_PUBLIC_KEY"),

		LogLevel:        valueOrDefault(getenv, "LOG_LEVEL", "info"),
		ShutdownTimeout: shutdown,
	}

	//必須チェック
	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be postgres or memory")
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProd() {
			return Config{}, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.JWTSecret = "dev_secret_change_me"
	}
	if cfg.IsProd() && len(cfg.JWTSecret) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if cfg.CartSweepInterval <= 0 {
		return Config{}, fmt.Errorf("CART_SWEEP_INTERVAL must be positive")
	}

	return cfg, nil
}

func valueOrDefault(getenv func(string) string, key string, def string) string {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intOrDefault(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOrDefault(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolOrDefault(getenv func(string) string, key string, def bool) bool {
	switch strings.TrimSpace(getenv(key)) {
	case "1", "true", "TRUE", "True":
		return true
	case "0", "false", "FALSE", "False":
		return false
	default:
		return def
	}
}
