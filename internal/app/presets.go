package app

import (
	"fmt"

	"adbrush/internal/domain"
	"adbrush/internal/infra/adb"
	"adbrush/internal/infra/presets"
)

// PresetStore is the subset of the preset database a run needs.
type PresetStore interface {
	Get(screen domain.ScreenSize, name string) (presets.Preset, error)
	Close() error
}

// PresetOpener opens the preset database on demand.
type PresetOpener func() (PresetStore, error)

// OpenPresetStore opens the database at path, or at the default location when path is empty.
func OpenPresetStore(path string) (PresetStore, error) {
	if path == "" {
		path = presets.ResolveDefaultPath()
	}
	store, err := presets.OpenStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// resolveTarget picks the tap coordinate from explicit x/y or a preset saved for screen.
func resolveTarget(target domain.TargetConfig, screen domain.ScreenSize, open PresetOpener) (domain.TapTarget, error) {
	if target.HasCoordinate() {
		return domain.TapTarget{X: target.X, Y: target.Y}, nil
	}
	if target.Preset == "" {
		return domain.TapTarget{}, fmt.Errorf("%w: set x/y or a preset", domain.ErrInvalidTarget)
	}
	if open == nil {
		return domain.TapTarget{}, domain.E(domain.CodeFailedPrecond, "resolve_target", "preset store unavailable", nil)
	}
	store, err := open()
	if err != nil {
		return domain.TapTarget{}, fmt.Errorf("open presets: %w", err)
	}
	defer func() { _ = store.Close() }()

	preset, err := store.Get(screen, target.Preset)
	if err != nil {
		return domain.TapTarget{}, fmt.Errorf("preset %q for %s: %w", target.Preset, presets.ScreenKey(screen), err)
	}
	return preset.Target(), nil
}

// resolveGesture returns the configured refresh swipe, or one derived from the screen size.
func resolveGesture(cfg domain.RefreshConfig, screen domain.ScreenSize) adb.RefreshGesture {
	if !cfg.Custom() {
		gesture := adb.DefaultRefreshGesture(screen)
		if cfg.Duration > 0 {
			gesture.Duration = cfg.Duration
		}
		return gesture
	}
	duration := cfg.Duration
	if duration <= 0 {
		duration = domain.DefaultRefreshGestureDuration
	}
	return adb.RefreshGesture{
		FromX:    cfg.FromX,
		FromY:    cfg.FromY,
		ToX:      cfg.ToX,
		ToY:      cfg.ToY,
		Duration: duration,
	}
}
