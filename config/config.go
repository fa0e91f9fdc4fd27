// Package config loads folio settings through viper: file, FOLIO_ environment
// variables, then defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ByLCY/folio/style"
)

// EnvPrefix 是环境变量前缀，例如 FOLIO_LAYOUT_WIDTH。
const EnvPrefix = "FOLIO"

// Config is the complete configuration.
type Config struct {
	Rendering style.RenderingConfig `mapstructure:"rendering" yaml:"rendering"`
	Layout    LayoutConfig          `mapstructure:"layout" yaml:"layout"`
	Logger    LoggerConfig          `mapstructure:"logger" yaml:"logger"`
	// Fonts 将字体键（如 "serif-bold"）映射到 "builtin:<name>" 或 FontDir 下的文件。
	Fonts map[string]string `mapstructure:"fonts" yaml:"fonts"`
}

// LayoutConfig 配置排版宽度与光标翻页。
type LayoutConfig struct {
	Width          int     `mapstructure:"width" yaml:"width"`
	PageDownFactor float64 `mapstructure:"page_down_factor" yaml:"page_down_factor"`
	PageUpFactor   float64 `mapstructure:"page_up_factor" yaml:"page_up_factor"`
	FontDir        string  `mapstructure:"font_dir" yaml:"font_dir"`
}

// LoggerConfig holds the logger settings. An empty LogFile disables the
// rotated file sink.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	// -- Rendering --
	v.SetDefault("rendering.horizontal_ppi", 96.0)
	v.SetDefault("rendering.vertical_ppi", 96.0)

	// -- Layout --
	v.SetDefault("layout.width", 600)
	v.SetDefault("layout.page_down_factor", 1.9)
	v.SetDefault("layout.page_up_factor", 0.9)
	v.SetDefault("layout.font_dir", "")

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "folio")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("fonts", map[string]string{})
}

// NewViper 返回已注册默认值并绑定 FOLIO_ 环境变量的 viper 实例。
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewDefaultConfig returns the defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper decodes and validates v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load 读取 path（YAML/TOML/JSON，按扩展名识别）；path 为空时只使用环境变量与默认值。
func Load(path string) (*Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
	}
	return NewConfigFromViper(v)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Rendering.HorizontalPPI <= 0 || c.Rendering.VerticalPPI <= 0 {
		errs = append(errs, errors.New("rendering.horizontal_ppi 与 rendering.vertical_ppi 必须为正数"))
	}
	if c.Layout.Width <= 0 {
		errs = append(errs, errors.New("layout.width 必须为正整数"))
	}
	if c.Layout.PageDownFactor <= 0 || c.Layout.PageUpFactor <= 0 {
		errs = append(errs, errors.New("layout.page_down_factor 与 layout.page_up_factor 必须为正数"))
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format 只能为 console 或 json，得到 %q", c.Logger.Format))
	}
	return errors.Join(errs...)
}
