package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Port       string `env:"PORT,        default=3000"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	JWTSecret  string `env:"JWT_SECRET,  required"`
	CORSOrigin string `env:"CORS_ORIGIN, default=http://localhost:8081"`

	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed.
	// Empty means the client IP is always the TCP peer.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	PasswordHasher string `env:"PASSWORD_HASHER, default=argon2id"`
	AuditWorkers   int    `env:"AUDIT_WORKERS,   default=4"`

	Store     StoreConfig
	Redis     RedisConfig
	LoginRate LoginRateConfig
}

type StoreConfig struct {
	URI      string `env:"STORE_URI, default=mongodb://localhost:27017"`
	Database string `env:"STORE_DB,  default=ceasar"`
}

// RedisConfig is optional; an empty Addr keeps login throttling in memory.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type LoginRateConfig struct {
	Limit  int           `env:"LOGIN_RATE_LIMIT,  default=100"`
	Window time.Duration `env:"LOGIN_RATE_WINDOW, default=15m"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ProxyRanges parses TrustedProxies. A bare IP is taken as a single host.
func (c *Config) ProxyRanges() ([]*net.IPNet, error) {
	ranges := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES: invalid address %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipnet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
		}
		ranges = append(ranges, ipnet)
	}
	return ranges, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.LoginRate.Limit <= 0 || cfg.LoginRate.Window <= 0 {
		return nil, fmt.Errorf("config: LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}
	if _, err := cfg.ProxyRanges(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
