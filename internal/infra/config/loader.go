package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"adbrush/internal/domain"
)

// Loader reads adbrush profiles from YAML.
type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newProfileViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setProfileDefaults(v)
	return v
}

func setProfileDefaults(v *viper.Viper) {
	defaults := domain.DefaultProfile()
	v.SetDefault("adb.commandTimeout", defaults.ADB.CommandTimeout)
	v.SetDefault("adb.connectRetries", defaults.ADB.ConnectRetries)
	v.SetDefault("dispatch.threads", defaults.Dispatch.Threads)
	v.SetDefault("dispatch.minDelay", defaults.Dispatch.MinDelay)
	v.SetDefault("dispatch.maxDelay", defaults.Dispatch.MaxDelay)
	v.SetDefault("dispatch.refreshInterval", time.Duration(0))
	v.SetDefault("dispatch.tapOffset", 0)
	v.SetDefault("dispatch.maxTapsPerSecond", 0.0)
	v.SetDefault("refresh.duration", defaults.Refresh.Duration)
	v.SetDefault("report.interval", defaults.Report.Interval)
	v.SetDefault("report.countdown", defaults.Report.Countdown)
	v.SetDefault("observability.listenAddress", defaults.Observability.ListenAddress)
	v.SetDefault("observability.metrics", false)
}

type rawProfile struct {
	ADB           rawADBConfig           `mapstructure:"adb"`
	Target        rawTargetConfig        `mapstructure:"target"`
	Dispatch      rawDispatchConfig      `mapstructure:"dispatch"`
	Refresh       rawRefreshConfig       `mapstructure:"refresh"`
	Report        rawReportConfig        `mapstructure:"report"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
	Presets       rawPresetsConfig       `mapstructure:"presets"`
}

type rawADBConfig struct {
	Path           string        `mapstructure:"path"`
	Serial         string        `mapstructure:"serial"`
	CommandTimeout time.Duration `mapstructure:"commandTimeout"`
	ConnectRetries int           `mapstructure:"connectRetries"`
	Connect        string        `mapstructure:"connect"`
}

type rawTargetConfig struct {
	X      *int   `mapstructure:"x"`
	Y      *int   `mapstructure:"y"`
	Preset string `mapstructure:"preset"`
}

type rawDispatchConfig struct {
	Threads          int           `mapstructure:"threads"`
	MinDelay         time.Duration `mapstructure:"minDelay"`
	MaxDelay         time.Duration `mapstructure:"maxDelay"`
	RefreshInterval  time.Duration `mapstructure:"refreshInterval"`
	TapOffset        int           `mapstructure:"tapOffset"`
	MaxTapsPerSecond float64       `mapstructure:"maxTapsPerSecond"`
}

type rawRefreshConfig struct {
	FromX    int           `mapstructure:"fromX"`
	FromY    int           `mapstructure:"fromY"`
	ToX      int           `mapstructure:"toX"`
	ToY      int           `mapstructure:"toY"`
	Duration time.Duration `mapstructure:"duration"`
}

type rawReportConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Countdown time.Duration `mapstructure:"countdown"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
	Metrics       bool   `mapstructure:"metrics"`
}

type rawPresetsConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads path and returns the validated profile. An empty path yields the defaults.
func (l *Loader) Load(ctx context.Context, path string) (domain.Profile, error) {
	expanded := ""
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("read config: %w", err)
		}
		var missing []string
		expanded, missing, err = expandConfigEnv(data)
		if err != nil {
			return domain.Profile{}, err
		}
		if len(missing) > 0 {
			l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
		}
	}

	v := newProfileViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return domain.Profile{}, fmt.Errorf("parse config: %w", err)
	}

	var raw rawProfile
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Profile{}, fmt.Errorf("decode config: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}

	profile := normalizeProfile(raw)
	if err := Validate(profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func normalizeProfile(raw rawProfile) domain.Profile {
	return domain.Profile{
		ADB: domain.ADBConfig{
			Path:           strings.TrimSpace(raw.ADB.Path),
			Serial:         strings.TrimSpace(raw.ADB.Serial),
			CommandTimeout: raw.ADB.CommandTimeout,
			ConnectRetries: raw.ADB.ConnectRetries,
			Connect:        strings.TrimSpace(raw.ADB.Connect),
		},
		Target: normalizeTarget(raw.Target),
		Dispatch: domain.DispatchConfig{
			Threads:          raw.Dispatch.Threads,
			MinDelay:         raw.Dispatch.MinDelay,
			MaxDelay:         raw.Dispatch.MaxDelay,
			RefreshInterval:  raw.Dispatch.RefreshInterval,
			TapOffset:        raw.Dispatch.TapOffset,
			MaxTapsPerSecond: raw.Dispatch.MaxTapsPerSecond,
		},
		Refresh: domain.RefreshConfig{
			FromX:    raw.Refresh.FromX,
			FromY:    raw.Refresh.FromY,
			ToX:      raw.Refresh.ToX,
			ToY:      raw.Refresh.ToY,
			Duration: raw.Refresh.Duration,
		},
		Report: domain.ReportConfig{
			Interval:  raw.Report.Interval,
			Countdown: raw.Report.Countdown,
		},
		Observability: domain.ObservabilityConfig{
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
			Metrics:       raw.Observability.Metrics,
		},
		Presets: domain.PresetsConfig{
			Path: strings.TrimSpace(raw.Presets.Path),
		},
	}
}

func normalizeTarget(raw rawTargetConfig) domain.TargetConfig {
	target := domain.TargetConfig{Preset: strings.TrimSpace(raw.Preset)}
	if raw.X != nil {
		target.X, target.XSet = *raw.X, true
	}
	if raw.Y != nil {
		target.Y, target.YSet = *raw.Y, true
	}
	return target
}

// Validate reports every problem in profile at once.
func Validate(profile domain.Profile) error {
	var errs []string
	if err := profile.Dispatch.Validate(); err != nil {
		errs = append(errs, "dispatch: "+strings.TrimPrefix(err.Error(), domain.ErrInvalidConfig.Error()+": "))
	}
	if profile.ADB.CommandTimeout <= 0 {
		errs = append(errs, "adb.commandTimeout must be > 0")
	}
	if profile.ADB.ConnectRetries < 0 {
		errs = append(errs, "adb.connectRetries must be >= 0")
	}
	if profile.Target.X < 0 || profile.Target.Y < 0 {
		errs = append(errs, "target coordinates must be >= 0")
	}
	if profile.Target.PartialCoordinate() {
		errs = append(errs, "target.x and target.y must be set together")
	}
	if (profile.Target.XSet || profile.Target.YSet) && profile.Target.Preset != "" {
		errs = append(errs, "target.preset and target.x/y are mutually exclusive")
	}
	if profile.Refresh.Duration < 0 {
		errs = append(errs, "refresh.duration must be >= 0")
	}
	refreshPoints := []int{profile.Refresh.FromX, profile.Refresh.FromY, profile.Refresh.ToX, profile.Refresh.ToY}
	set := 0
	for _, p := range refreshPoints {
		if p < 0 {
			errs = append(errs, "refresh coordinates must be >= 0")
			break
		}
		if p > 0 {
			set++
		}
	}
	if set > 0 && set < len(refreshPoints) {
		errs = append(errs, "refresh.fromX, fromY, toX and toY must be set together")
	}
	if profile.Report.Interval <= 0 {
		errs = append(errs, "report.interval must be > 0")
	}
	if profile.Report.Countdown < 0 {
		errs = append(errs, "report.countdown must be >= 0")
	}
	if profile.Observability.Metrics && profile.Observability.ListenAddress == "" {
		errs = append(errs, "observability.listenAddress is required when metrics are enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.New(strings.Join(errs, "; ")))
	}
	return nil
}
