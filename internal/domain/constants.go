package domain

import "time"

const (
	DefaultThreads                    = 5
	DefaultMinDelay                   = 10 * time.Millisecond
	DefaultMaxDelay                   = 50 * time.Millisecond
	DefaultReportInterval             = time.Second
	DefaultCountdown                  = 3 * time.Second
	DefaultCommandTimeout             = 5 * time.Second
	DefaultConnectRetries             = 3
	DefaultConnectRetryDelay          = 2 * time.Second
	DefaultRefreshGestureDuration     = 200 * time.Millisecond
	DefaultScreenWidth                = 1080
	DefaultScreenHeight               = 2400
	DefaultObservabilityListenAddress = "127.0.0.1:9090"
	DefaultADBExecutable              = "adb"
	DefaultUIDumpRemotePath           = "/sdcard/adbrush_ui.xml"
	DeviceStateReady                  = "device"
	FailureLogEvery                   = 100

	// Upper bounds accepted by DispatchConfig.Validate.
	MaxDelayCeiling = 24 * time.Hour
	MaxTapOffset    = 10000
)
