package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"famcal/internal/config"
	"famcal/internal/expand"
	"famcal/internal/export"
	appLog "famcal/internal/log"
	"famcal/internal/model"
	"famcal/internal/store"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath  string
	dbPath      string
	outputPath  string
	from        string
	to          string
	days        int
	participant string
	category    string
	watch       bool
	debug       bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("famcal starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.dbPath != "" {
		conf.DBPath = flags.dbPath
	}
	if flags.outputPath != "" {
		conf.OutputPath = flags.outputPath
	}
	if flags.days > 0 {
		conf.HorizonDays = flags.days
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone in config", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"horizon_days", conf.HorizonDays,
		"db_path", conf.DBPath,
		"output_path", conf.OutputPath,
		"refresh", conf.RefreshCron,
		"watch", flags.watch,
	)

	st, err := store.New(conf.DBPath)
	if err != nil {
		appLog.Error("failed to open event store", err, "db_path", conf.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	run := func() {
		if err := runOnce(conf, st, loc, flags); err != nil {
			appLog.Error("expansion run failed", err)
		}
	}

	if !flags.watch {
		if err := runOnce(conf, st, loc, flags); err != nil {
			appLog.Error("expansion run failed", err)
			os.Exit(1)
		}
		return
	}

	// Watch mode: re-expand and re-export on the configured cron schedule.
	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, run); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	run()
	c.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLog.Info("signal received, shutting down", "signal", sig.String())

	<-c.Stop().Done()
	appLog.Info("famcal exiting")
}

// runOnce performs one expansion cycle: load masters from the store, expand
// them over the requested window, print the agenda and optionally write the
// ICS feed. The reference instant is captured once per run and passed down
// explicitly.
func runOnce(conf *config.Config, st *store.Store, loc *time.Location, flags flagConfig) error {
	now := time.Now().UTC()

	windowStart, windowEnd, err := resolveWindow(conf, loc, flags, now)
	if err != nil {
		return err
	}

	masters, err := st.ListCandidates(windowEnd)
	if err != nil {
		return err
	}

	result, err := expand.Events(masters, expand.Options{
		Location:               loc,
		WindowStart:            windowStart,
		WindowEnd:              windowEnd,
		MaxOccurrencesPerEvent: conf.MaxOccurrencesPerEvent,
		ParticipantID:          flags.participant,
		Category:               flags.category,
	})
	if err != nil {
		return err
	}

	appLog.Info("expansion completed",
		"masters", len(masters),
		"occurrences", len(result.Occurrences),
		"failed", len(result.Failed),
		"truncated", len(result.Truncated),
		"window_start", windowStart.Format(time.RFC3339),
		"window_end", windowEnd.Format(time.RFC3339),
	)

	printAgenda(result.Occurrences, loc)

	if conf.OutputPath != "" {
		cal := export.Occurrences(result.Occurrences, now)
		if err := export.WriteFile(conf.OutputPath, cal); err != nil {
			return err
		}
		appLog.Info("ics feed written", "path", conf.OutputPath, "events", len(result.Occurrences))
	}

	return nil
}

// resolveWindow picks the expansion window: explicit -from/-to when given,
// otherwise the horizon window starting at today's local midnight.
func resolveWindow(conf *config.Config, loc *time.Location, flags flagConfig, now time.Time) (time.Time, time.Time, error) {
	if flags.from == "" && flags.to == "" {
		start, end := expand.HorizonWindow(now, loc, conf.HorizonDays)
		return start, end, nil
	}

	start, err := time.Parse(time.RFC3339, flags.from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad -from value %q: %w", flags.from, err)
	}
	end, err := time.Parse(time.RFC3339, flags.to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad -to value %q: %w", flags.to, err)
	}
	return start.UTC(), end.UTC(), nil
}

// printAgenda writes the expanded occurrences to stdout grouped by local day.
func printAgenda(occs []model.Occurrence, loc *time.Location) {
	byDay := make(map[string][]model.Occurrence)
	var days []string
	for _, occ := range occs {
		day := occ.StartUTC.In(loc).Format("2006-01-02 (Mon)")
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], occ)
	}
	sort.Strings(days)

	for _, day := range days {
		fmt.Println(day)
		for _, occ := range byDay[day] {
			line := fmt.Sprintf("  %s-%s  %s",
				occ.StartUTC.In(loc).Format("15:04"),
				occ.EndUTC.In(loc).Format("15:04"),
				occ.Title)
			if occ.Location != "" {
				line += " @ " + occ.Location
			}
			fmt.Println(line)
		}
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./famcal.yaml", "Path to config file")
	flag.StringVar(&cfg.dbPath, "db", "", "SQLite database path (overrides config if set)")
	flag.StringVar(&cfg.outputPath, "out", "", "ICS output path (overrides config if set)")
	flag.StringVar(&cfg.from, "from", "", "Window start (RFC3339); requires -to")
	flag.StringVar(&cfg.to, "to", "", "Window end (RFC3339); requires -from")
	flag.IntVar(&cfg.days, "days", 0, "Horizon in days from today (overrides config if set)")
	flag.StringVar(&cfg.participant, "participant", "", "Only expand events for this participant ID")
	flag.StringVar(&cfg.category, "category", "", "Only expand events with this category")
	flag.BoolVar(&cfg.watch, "watch", false, "Keep running and refresh on the configured cron schedule")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
