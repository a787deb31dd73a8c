// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	RateLimiter RateLimiterConfig
	Upstream    UpstreamConfig
	Report      ReportConfig
	Tracking    TrackingConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Presenter   PresenterConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type RateLimiterConfig struct {
	IPRule domain.RateLimitRule
}

// UpstreamConfig guarda as credenciais da DataForSEO; ausência não é erro de carga.
type UpstreamConfig struct {
	BaseURL       string
	Login         string
	Password      string
	Timeout       time.Duration
	MaxRetries    int
	RatePerSecond float64
	Burst         int
}

type ReportConfig struct {
	LocationCode     int
	LanguageCode     string
	HistoryMonths    int
	CompetitorRegion string
	Timeout          time.Duration
	Parallel         bool
}

type TrackingConfig struct {
	BufferSize int
	SQLitePath string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

type PresenterConfig struct {
	Language string
}

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Load lê .env, depois o ambiente, depois o arquivo YAML de CONFIG_FILE (se houver) e por fim os defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	return load(src)
}

func load(src source) (Config, error) {
	var (
		cfg  Config
		errs []string
	)
	p := parser{src: src, errs: &errs}

	cfg.Server = ServerConfig{
		Port:            src.get("SERVER_PORT", "8080"),
		ReadTimeout:     p.getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    p.getDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
		ShutdownTimeout: p.getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	cfg.Storage = StorageConfig{
		Type: strings.ToLower(src.get("STORAGE_TYPE", StorageMemory)),
		Redis: RedisConfig{
			Host:      src.get("REDIS_HOST", "localhost"),
			Port:      p.getInt("REDIS_PORT", 6379),
			Password:  src.get("REDIS_PASSWORD", ""),
			DB:        p.getInt("REDIS_DB", 0),
			KeyPrefix: src.get("REDIS_KEY_PREFIX", "ratelimit:ip:"),
		},
	}
	if cfg.Storage.Type != StorageMemory && cfg.Storage.Type != StorageRedis {
		errs = append(errs, fmt.Sprintf("invalid STORAGE_TYPE %q (want memory or redis)", cfg.Storage.Type))
	}

	cfg.RateLimiter = RateLimiterConfig{
		IPRule: domain.RateLimitRule{
			Requests: p.getInt("RATE_LIMIT_IP_REQUESTS", 10),
			Window:   p.getDuration("RATE_LIMIT_IP_WINDOW", time.Hour),
		},
	}
	if cfg.RateLimiter.IPRule.Requests <= 0 || cfg.RateLimiter.IPRule.Window <= 0 {
		errs = append(errs, "rate limit requests and window must be positive")
	}

	cfg.Upstream = UpstreamConfig{
		BaseURL:       src.get("DATAFORSEO_BASE_URL", "https://api.dataforseo.com"),
		Login:         src.get("DATAFORSEO_LOGIN", ""),
		Password:      src.get("DATAFORSEO_PASSWORD", ""),
		Timeout:       p.getDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		MaxRetries:    p.getInt("UPSTREAM_MAX_RETRIES", 1),
		RatePerSecond: p.getFloat("UPSTREAM_RATE_PER_SECOND", 10),
		Burst:         p.getInt("UPSTREAM_BURST", 5),
	}
	if cfg.Upstream.MaxRetries < 0 {
		errs = append(errs, "UPSTREAM_MAX_RETRIES must not be negative")
	}

	cfg.Report = ReportConfig{
		LocationCode:     p.getInt("REPORT_LOCATION_CODE", 2840),
		LanguageCode:     src.get("REPORT_LANGUAGE_CODE", "en"),
		HistoryMonths:    p.getInt("REPORT_HISTORY_MONTHS", 12),
		CompetitorRegion: src.get("REPORT_COMPETITOR_REGION", ""),
		Timeout:          p.getDuration("REPORT_TIMEOUT", 60*time.Second),
		Parallel:         p.getBool("REPORT_PARALLEL", false),
	}

	cfg.Tracking = TrackingConfig{
		BufferSize: p.getInt("TRACKING_BUFFER_SIZE", 256),
		SQLitePath: src.get("TRACKING_SQLITE_PATH", ""),
	}

	cfg.Log = LogConfig{
		Level:  src.get("LOG_LEVEL", "info"),
		Format: src.get("LOG_FORMAT", "json"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled:   p.getBool("METRICS_ENABLED", true),
		Namespace: src.get("METRICS_NAMESPACE", "seo_report"),
	}

	cfg.Presenter = PresenterConfig{Language: src.get("PRESENTER_LANGUAGE", "en-US")}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// source resolve uma chave no ambiente e depois no arquivo YAML.
type source struct {
	lookupEnv func(string) (string, bool)
	file      map[string]string
}

func newSource(path string) (source, error) {
	src := source{lookupEnv: os.LookupEnv}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read config file: %w", err)
	}
	file, err := parseKeyFile(raw)
	if err != nil {
		return source{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	src.file = file
	return src, nil
}

// parseKeyFile aceita um mapa YAML plano; valores escalares viram string.
func parseKeyFile(raw []byte) (map[string]string, error) {
	var values map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	for key, node := range values {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("key %s: only scalar values are supported", key)
		}
		out[strings.ToUpper(strings.TrimSpace(key))] = node.Value
	}
	return out, nil
}

func (s source) get(key, fallback string) string {
	if s.lookupEnv != nil {
		if v, ok := s.lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if v, ok := s.file[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// parser acumula erros de conversão para reportar todos de uma vez.
type parser struct {
	src  source
	errs *[]string
}

func (p parser) getInt(key string, fallback int) int {
	raw := p.src.get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("invalid %s: %v", key, err))
		return fallback
	}
	return v
}

func (p parser) getFloat(key string, fallback float64) float64 {
	raw := p.src.get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("invalid %s: %v", key, err))
		return fallback
	}
	return v
}

func (p parser) getBool(key string, fallback bool) bool {
	raw := p.src.get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("invalid %s: %v", key, err))
		return fallback
	}
	return v
}

// getDuration aceita "90s"/"1h" ou um inteiro em segundos.
func (p parser) getDuration(key string, fallback time.Duration) time.Duration {
	raw := p.src.get(key, "")
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("invalid %s: %v", key, err))
		return fallback
	}
	return v
}
