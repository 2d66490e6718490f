package domain

import "time"

// Profile is the operator configuration for adbrush, loaded from YAML and flags.
type Profile struct {
	ADB           ADBConfig
	Target        TargetConfig
	Dispatch      DispatchConfig
	Refresh       RefreshConfig
	Report        ReportConfig
	Observability ObservabilityConfig
	Presets       PresetsConfig
}

// ADBConfig locates the bridge and the device.
type ADBConfig struct {
	Path           string
	Serial         string
	CommandTimeout time.Duration
	ConnectRetries int
	// Connect is an optional host:port attached with `adb connect` before use.
	Connect string
}

// TargetConfig names the tap coordinate directly or through a preset.
// XSet and YSet record which axes were given, so 0 is a usable coordinate.
type TargetConfig struct {
	X      int
	Y      int
	XSet   bool
	YSet   bool
	Preset string
}

// CoordinateTarget returns a TargetConfig with both axes set.
func CoordinateTarget(x, y int) TargetConfig {
	return TargetConfig{X: x, Y: y, XSet: true, YSet: true}
}

// SetX sets the horizontal coordinate and drops any preset.
func (t *TargetConfig) SetX(x int) {
	t.X, t.XSet, t.Preset = x, true, ""
}

// SetY sets the vertical coordinate and drops any preset.
func (t *TargetConfig) SetY(y int) {
	t.Y, t.YSet, t.Preset = y, true, ""
}

// HasCoordinate reports whether both X and Y were given.
func (t TargetConfig) HasCoordinate() bool {
	return t.XSet && t.YSet
}

// PartialCoordinate reports whether only one of X and Y was given.
func (t TargetConfig) PartialCoordinate() bool {
	return t.XSet != t.YSet
}

// Empty reports whether neither a coordinate axis nor a preset was given.
func (t TargetConfig) Empty() bool {
	return !t.XSet && !t.YSet && t.Preset == ""
}

// RefreshConfig overrides the pull-to-refresh swipe. Zero values derive
// the gesture from the screen size.
type RefreshConfig struct {
	FromX    int
	FromY    int
	ToX      int
	ToY      int
	Duration time.Duration
}

// Custom reports whether every swipe endpoint was set.
func (r RefreshConfig) Custom() bool {
	return r.FromX > 0 && r.FromY > 0 && r.ToX > 0 && r.ToY > 0
}

// ReportConfig controls live progress output.
type ReportConfig struct {
	Interval  time.Duration
	Countdown time.Duration
}

// ObservabilityConfig controls the optional metrics and health endpoint.
type ObservabilityConfig struct {
	ListenAddress string
	Metrics       bool
}

// PresetsConfig locates the coordinate preset database.
type PresetsConfig struct {
	Path string
}

// DefaultProfile returns the profile used when no config file is given.
func DefaultProfile() Profile {
	return Profile{
		ADB: ADBConfig{
			CommandTimeout: DefaultCommandTimeout,
			ConnectRetries: DefaultConnectRetries,
		},
		Dispatch: DefaultDispatchConfig(),
		Refresh: RefreshConfig{
			Duration: DefaultRefreshGestureDuration,
		},
		Report: ReportConfig{
			Interval:  DefaultReportInterval,
			Countdown: DefaultCountdown,
		},
		Observability: ObservabilityConfig{
			ListenAddress: DefaultObservabilityListenAddress,
		},
	}
}
