package adb

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"adbrush/internal/domain"
)

var wmSizePattern = regexp.MustCompile(`(?m)^\s*(Physical|Override) size:\s*(\d+)x(\d+)`)

// parseDevices reads the output of `adb devices`.
func parseDevices(out []byte) []domain.Device {
	var devices []domain.Device
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, domain.Device{Serial: fields[0], State: fields[1]})
	}
	return devices
}

// parseScreenSize reads the output of `wm size`. An override size wins over the physical one.
func parseScreenSize(out []byte) (domain.ScreenSize, bool) {
	var physical, override domain.ScreenSize
	for _, match := range wmSizePattern.FindAllSubmatch(out, -1) {
		width, errW := strconv.Atoi(string(match[2]))
		height, errH := strconv.Atoi(string(match[3]))
		if errW != nil || errH != nil || width <= 0 || height <= 0 {
			continue
		}
		size := domain.ScreenSize{Width: width, Height: height}
		if string(match[1]) == "Override" {
			override = size
		} else {
			physical = size
		}
	}
	if override.Width > 0 {
		return override, true
	}
	if physical.Width > 0 {
		return physical, true
	}
	return domain.ScreenSize{}, false
}
