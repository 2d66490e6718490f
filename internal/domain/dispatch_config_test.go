package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatchConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     DispatchConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultDispatchConfig()},
		{name: "fixed zero delay", cfg: DispatchConfig{Threads: 1}},
		{name: "zero threads", cfg: DispatchConfig{Threads: 0}, wantErr: true},
		{name: "negative min", cfg: DispatchConfig{Threads: 1, MinDelay: -time.Millisecond}, wantErr: true},
		{name: "max below min", cfg: DispatchConfig{Threads: 1, MinDelay: 20 * time.Millisecond, MaxDelay: 10 * time.Millisecond}, wantErr: true},
		{name: "negative refresh", cfg: DispatchConfig{Threads: 1, RefreshInterval: -time.Second}, wantErr: true},
		{name: "negative offset", cfg: DispatchConfig{Threads: 1, TapOffset: -1}, wantErr: true},
		{name: "negative ceiling", cfg: DispatchConfig{Threads: 1, MaxTapsPerSecond: -1}, wantErr: true},
		{name: "max delay at ceiling", cfg: DispatchConfig{Threads: 1, MaxDelay: MaxDelayCeiling}},
		{name: "max delay past ceiling", cfg: DispatchConfig{Threads: 1, MaxDelay: MaxDelayCeiling + 1}, wantErr: true},
		{name: "max int64 delay", cfg: DispatchConfig{Threads: 1, MaxDelay: math.MaxInt64}, wantErr: true},
		{name: "offset at ceiling", cfg: DispatchConfig{Threads: 1, TapOffset: MaxTapOffset}},
		{name: "max int offset", cfg: DispatchConfig{Threads: 1, TapOffset: math.MaxInt}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			code, ok := CodeFrom(err)
			require.True(t, ok)
			require.Equal(t, CodeInvalidArgument, code)
		})
	}
}

func TestDispatchConfigValidate_CollectsAllProblems(t *testing.T) {
	err := DispatchConfig{Threads: 0, MinDelay: -1, MaxDelay: -2}.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "threads")
	require.Contains(t, err.Error(), "minDelay")
	require.Contains(t, err.Error(), "maxDelay")
}

func TestRate_ClampsTinyWindows(t *testing.T) {
	require.Equal(t, float64(5000), Rate(5, 0))
	require.InDelta(t, 2.0, Rate(4, 2*time.Second), 1e-9)
}
