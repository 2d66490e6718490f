package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"adbrush/internal/domain"
	"adbrush/internal/infra/process"
	"adbrush/internal/infra/telemetry"
)

// RefreshGesture is the swipe used as pull-to-refresh.
type RefreshGesture struct {
	FromX    int
	FromY    int
	ToX      int
	ToY      int
	Duration time.Duration
}

// IsZero reports whether no gesture was configured.
func (g RefreshGesture) IsZero() bool {
	return g == RefreshGesture{}
}

// DefaultRefreshGesture pulls down the middle of the screen from 25% to 70% of its height.
func DefaultRefreshGesture(size domain.ScreenSize) RefreshGesture {
	return RefreshGesture{
		FromX:    size.Width / 2,
		FromY:    size.Height * 25 / 100,
		ToX:      size.Width / 2,
		ToY:      size.Height * 70 / 100,
		Duration: domain.DefaultRefreshGestureDuration,
	}
}

// Options configures a Client.
type Options struct {
	Path           string
	Serial         string
	CommandTimeout time.Duration
	Gesture        RefreshGesture
	Runner         process.Runner
	Logger         *zap.Logger
}

// Client drives one device through the adb executable. Each call spawns its
// own process, so a Client is safe for concurrent use.
type Client struct {
	path    string
	serial  string
	timeout time.Duration
	gesture RefreshGesture
	runner  process.Runner
	logger  *zap.Logger
}

var _ domain.DeviceControl = (*Client)(nil)

// NewClient builds a Client, locating adb when no path is given.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	path := opts.Path
	if path == "" {
		path = Locate()
	}
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	runner := opts.Runner
	if runner == nil {
		runner = process.ExecRunner{}
	}
	gesture := opts.Gesture
	if gesture.IsZero() {
		gesture = DefaultRefreshGesture(domain.ScreenSize{Width: domain.DefaultScreenWidth, Height: domain.DefaultScreenHeight})
	}
	return &Client{
		path:    path,
		serial:  opts.Serial,
		timeout: timeout,
		gesture: gesture,
		runner:  runner,
		logger:  logger.Named("adb"),
	}
}

// Path returns the adb executable in use.
func (c *Client) Path() string {
	return c.path
}

// Serial returns the targeted device serial, empty for the adb default.
func (c *Client) Serial() string {
	return c.serial
}

// Gesture returns the refresh swipe.
func (c *Client) Gesture() RefreshGesture {
	return c.gesture
}

// WithSerial returns a copy of c that targets serial.
func (c *Client) WithSerial(serial string) *Client {
	clone := *c
	clone.serial = serial
	clone.logger = c.logger.With(telemetry.DeviceField(serial))
	return &clone
}

// WithGesture returns a copy of c that refreshes with gesture.
func (c *Client) WithGesture(gesture RefreshGesture) *Client {
	clone := *c
	clone.gesture = gesture
	return &clone
}

// Tap touches (x, y).
func (c *Client) Tap(ctx context.Context, x, y int) error {
	_, err := c.device(ctx, "tap", "shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// Refresh performs the configured pull-to-refresh swipe.
func (c *Client) Refresh(ctx context.Context) error {
	g := c.gesture
	return c.Swipe(ctx, domain.TapTarget{X: g.FromX, Y: g.FromY}, domain.TapTarget{X: g.ToX, Y: g.ToY}, g.Duration)
}

// Swipe drags from one point to another over duration.
func (c *Client) Swipe(ctx context.Context, from, to domain.TapTarget, duration time.Duration) error {
	_, err := c.device(ctx, "swipe", "shell", "input", "swipe",
		strconv.Itoa(from.X), strconv.Itoa(from.Y),
		strconv.Itoa(to.X), strconv.Itoa(to.Y),
		strconv.FormatInt(duration.Milliseconds(), 10),
	)
	return err
}

// Devices lists every device adb knows about.
func (c *Client) Devices(ctx context.Context) ([]domain.Device, error) {
	out, err := c.exec(ctx, "devices", "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

// SelectDevice picks the configured serial, or the first authorized device.
func (c *Client) SelectDevice(ctx context.Context) (domain.Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return domain.Device{}, err
	}
	if c.serial != "" {
		for _, dev := range devices {
			if dev.Serial != c.serial {
				continue
			}
			if !dev.Authorized() {
				return domain.Device{}, fmt.Errorf("%w: %s is %s", domain.ErrNoDevice, dev.Serial, dev.State)
			}
			return dev, nil
		}
		return domain.Device{}, fmt.Errorf("%w: %s not attached", domain.ErrNoDevice, c.serial)
	}
	for _, dev := range devices {
		if dev.Authorized() {
			return dev, nil
		}
	}
	if len(devices) > 0 {
		return domain.Device{}, fmt.Errorf("%w: %d attached, none authorized", domain.ErrNoDevice, len(devices))
	}
	return domain.Device{}, domain.ErrNoDevice
}

// WaitForDevice retries SelectDevice with a constant backoff.
func (c *Client) WaitForDevice(ctx context.Context, retries int, delay time.Duration) (domain.Device, error) {
	if retries < 0 {
		retries = 0
	}
	if delay <= 0 {
		delay = domain.DefaultConnectRetryDelay
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewConstant(delay))

	var selected domain.Device
	attempt := 0
	err := retry.Do(ctx, backoff, func(retryCtx context.Context) error {
		attempt++
		dev, err := c.SelectDevice(retryCtx)
		if err == nil {
			selected = dev
			return nil
		}
		if errors.Is(err, domain.ErrNoDevice) || domain.IsConnectionLost(err) || errors.Is(err, domain.ErrDeviceTimeout) {
			c.logger.Info("waiting for device",
				telemetry.EventField(telemetry.EventDeviceWait),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return domain.Device{}, err
	}
	return selected, nil
}

// Connect attaches a device over TCP/IP, as in `adb connect host:port`.
func (c *Client) Connect(ctx context.Context, address string) error {
	out, err := c.exec(ctx, "connect", "connect", address)
	if err != nil {
		return err
	}
	text := strings.ToLower(string(out))
	if strings.Contains(text, "connected to") {
		return nil
	}
	return domain.NewDeviceError(domain.DeviceErrorConnectionLost, "connect", errors.New(strings.TrimSpace(string(out))))
}

// ScreenSize reads the display size, falling back to 1080x2400 when adb
// answers with something unparseable.
func (c *Client) ScreenSize(ctx context.Context) (domain.ScreenSize, error) {
	out, err := c.device(ctx, "screen_size", "shell", "wm", "size")
	if err != nil {
		return domain.ScreenSize{}, err
	}
	if size, ok := parseScreenSize(out); ok {
		return size, nil
	}
	fallback := domain.ScreenSize{Width: domain.DefaultScreenWidth, Height: domain.DefaultScreenHeight}
	c.logger.Warn("unrecognized wm size output, using default screen size",
		telemetry.EventField(telemetry.EventScreenFallback),
		zap.String("output", strings.TrimSpace(string(out))),
		zap.Int("width", fallback.Width),
		zap.Int("height", fallback.Height),
	)
	return fallback, nil
}

// Screenshot returns a PNG of the current screen.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	out, err := c.device(ctx, "screenshot", "exec-out", "screencap", "-p")
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(out, pngMagic) {
		return nil, domain.NewDeviceError(domain.DeviceErrorCommandFailed, "screenshot", errors.New("output is not a PNG image"))
	}
	return out, nil
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// DumpUI returns the uiautomator view hierarchy as XML.
func (c *Client) DumpUI(ctx context.Context) ([]byte, error) {
	remote := domain.DefaultUIDumpRemotePath
	if _, err := c.device(ctx, "dump_ui", "shell", "uiautomator", "dump", remote); err != nil {
		return nil, err
	}
	out, err := c.device(ctx, "dump_ui", "exec-out", "cat", remote)
	if _, rmErr := c.device(ctx, "dump_ui", "shell", "rm", "-f", remote); rmErr != nil {
		c.logger.Debug("remove ui dump failed", zap.Error(rmErr))
	}
	if err != nil {
		return nil, err
	}
	if !bytes.Contains(out, []byte("<hierarchy")) {
		return nil, domain.NewDeviceError(domain.DeviceErrorCommandFailed, "dump_ui", errors.New("output is not a view hierarchy"))
	}
	return out, nil
}

// device runs a command against the selected device.
func (c *Client) device(ctx context.Context, op string, args ...string) ([]byte, error) {
	if c.serial != "" {
		args = append([]string{"-s", c.serial}, args...)
	}
	return c.exec(ctx, op, args...)
}

func (c *Client) exec(ctx context.Context, op string, args ...string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.runner.Run(callCtx, c.path, args...)
	if err != nil {
		return nil, classify(op, result, err)
	}
	return result.Stdout, nil
}
