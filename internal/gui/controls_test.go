package gui

import (
	"errors"
	"testing"

	"jordanella.com/tower-bot-go/internal/bot"
)

func TestDescribeDevice(t *testing.T) {
	tests := []struct {
		name   string
		cfg    bot.DeviceConfig
		w, h   int
		expect string
	}{
		{
			"adb first attached",
			bot.DeviceConfig{Backend: bot.BackendADB, Package: "com.TechTreeGames.TheTower"},
			0, 0,
			"adb first attached (com.TechTreeGames.TheTower)",
		},
		{
			"adb with screen size",
			bot.DeviceConfig{Backend: bot.BackendADB, Serial: "emulator-5554", Package: "pkg"},
			1440, 2560,
			"adb emulator-5554 (pkg) 1440x2560",
		},
		{
			"desktop",
			bot.DeviceConfig{Backend: bot.BackendDesktop, Display: 1, ProcessMatch: "tower"},
			0, 0,
			`desktop display 1 (process "tower")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeDevice(tt.cfg, tt.w, tt.h); got != tt.expect {
				t.Errorf("describeDevice() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestDescribeCapture(t *testing.T) {
	if got := describeCapture(nil); got != "ok" {
		t.Errorf("describeCapture(nil) = %q, want ok", got)
	}
	if got := describeCapture(errors.New("screencap failed")); got != "failing: screencap failed" {
		t.Errorf("describeCapture(err) = %q", got)
	}
}
