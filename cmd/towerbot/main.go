// Command towerbot runs the scheduler without a window until interrupted.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jordanella.com/tower-bot-go/internal/config"
	"jordanella.com/tower-bot-go/internal/launcher"
	"jordanella.com/tower-bot-go/internal/logging"
)

func main() {
	iniPath := flag.String("config", "Settings.ini", "path to Settings.ini")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	jsonLogs := flag.Bool("json", false, "write JSON log lines instead of console output")
	flag.Parse()

	os.Exit(run(*iniPath, *duration, !*jsonLogs))
}

func run(iniPath string, duration time.Duration, console bool) int {
	// Level from the file, before the launcher logs anything
	level := logging.LogLevelInfo
	if settings, err := config.LoadFromINI(iniPath); err == nil {
		level = logging.ParseLevel(settings.LogLevel)
	}
	logging.Setup(logging.Options{Level: level, Console: console})
	log := logging.NewLogger("Main")

	l, err := launcher.Open(iniPath)
	if err != nil {
		log.Error("Failed to start", err)
		return 1
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Error("Shutdown finished with errors", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	l.Start()

	select {
	case sig := <-sigCh:
		log.InfoWithContext("Stopping", map[string]interface{}{"signal": sig.String()})
	case <-timeout:
		log.InfoWithContext("Run time elapsed", map[string]interface{}{"duration": duration.String()})
	}

	l.Stop()
	// Drain the bus so the session row is closed before it is read back
	l.Events().Stop()

	summary, err := l.LastSession()
	if err != nil {
		log.Warn("No session summary: " + err.Error())
		return 0
	}

	fields := map[string]interface{}{
		"session": summary.ID,
		"device":  summary.Device,
		"ticks":   summary.Ticks,
		"wave":    summary.MaxWave,
		"taps":    summary.TapCount,
		"perks":   summary.PerkCount,
		"errors":  summary.ErrorCount,
	}
	if summary.EndedAt != nil {
		fields["duration"] = summary.EndedAt.Sub(summary.StartedAt).Round(time.Second).String()
	}
	log.InfoWithContext("Session summary", fields)
	return 0
}
