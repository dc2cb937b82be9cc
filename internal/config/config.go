package config

import (
	"fmt"
	"os"

	"github.com/skalibog/indcalc/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Имена движков, допустимые в priority и disabled
const (
	EngineTalib    = "talib"
	EngineTechan   = "techan"
	EngineFallback = "fallback"
)

// Типы источника свечей
const (
	SourceDemo     = "demo"
	SourceInfluxDB = "influxdb"
	SourceBinance  = "binance"
)

// DefaultCacheCapacity емкость кэша результатов по умолчанию
const DefaultCacheCapacity = 200

// Config представляет полную конфигурацию приложения
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Source  SourceConfig  `yaml:"source"`
	Storage StorageConfig `yaml:"storage"`
	Binance BinanceConfig `yaml:"binance"`
}

// EngineConfig настройки цепочки движков и кэша
type EngineConfig struct {
	CacheCapacity int      `yaml:"cache_capacity"`
	Priority      []string `yaml:"priority"`
	Disabled      []string `yaml:"disabled"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MetricsConfig настройки метрик Prometheus
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Addr      string `yaml:"addr"`
}

// SourceConfig откуда брать свечи
type SourceConfig struct {
	Type     string `yaml:"type"`
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"`
	Limit    int    `yaml:"limit"`
}

// StorageConfig настройки хранения данных
type StorageConfig struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			CacheCapacity: DefaultCacheCapacity,
			Priority:      []string{EngineTalib, EngineTechan, EngineFallback},
		},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Namespace: "indcalc", Addr: ":9102"},
		Source: SourceConfig{
			Type:     SourceDemo,
			Symbol:   "BTCUSDT",
			Interval: "1h",
			Limit:    500,
		},
	}
}

// Load загружает конфигурацию из файла поверх значений по умолчанию
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Загружена конфигурация", zap.String("path", path), zap.Any("engine", cfg.Engine))
	return cfg, nil
}

// Validate проверяет конфигурацию и подставляет значения по умолчанию
func (c *Config) Validate() error {
	if c.Engine.CacheCapacity <= 0 {
		c.Engine.CacheCapacity = DefaultCacheCapacity
	}
	if len(c.Engine.Priority) == 0 {
		c.Engine.Priority = Default().Engine.Priority
	}

	seen := make(map[string]bool)
	for _, name := range c.Engine.Priority {
		if !knownEngine(name) {
			return fmt.Errorf("неизвестный движок в engine.priority: %q", name)
		}
		if seen[name] {
			return fmt.Errorf("движок %q указан в engine.priority дважды", name)
		}
		seen[name] = true
	}
	for _, name := range c.Engine.Disabled {
		if !knownEngine(name) {
			return fmt.Errorf("неизвестный движок в engine.disabled: %q", name)
		}
		if name == EngineFallback {
			return fmt.Errorf("резервный движок %q нельзя отключить", name)
		}
	}
	switch c.Source.Type {
	case "":
		c.Source.Type = SourceDemo
	case SourceDemo, SourceInfluxDB, SourceBinance:
	default:
		return fmt.Errorf("неизвестный источник свечей: %q, допустимо %s, %s, %s",
			c.Source.Type, SourceDemo, SourceInfluxDB, SourceBinance)
	}
	if c.Source.Limit <= 0 {
		c.Source.Limit = Default().Source.Limit
	}
	return nil
}

// IsDisabled сообщает, отключен ли движок в конфигурации
func (e EngineConfig) IsDisabled(name string) bool {
	for _, d := range e.Disabled {
		if d == name {
			return true
		}
	}
	return false
}

func knownEngine(name string) bool {
	switch name {
	case EngineTalib, EngineTechan, EngineFallback:
		return true
	}
	return false
}
