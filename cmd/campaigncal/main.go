package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campaigncal/internal/catalog"
	"campaigncal/internal/config"
	"campaigncal/internal/dates"
	"campaigncal/internal/digest"
	"campaigncal/internal/ics"
	appLog "campaigncal/internal/log"
	"campaigncal/internal/store"
	"campaigncal/internal/taskgen"
	"campaigncal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	importSrc  string
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.Info("campaigncal starting", "version", "0.1.0")

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	time.Local = conf.Location()

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"db_path", conf.DBPath,
		"digest", conf.DigestCron,
		"default_size", conf.DefaultSize,
		"default_assignee", conf.DefaultAssignee,
		"once", flags.once,
		"import", flags.importSrc != "",
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	st, err := store.New(conf.DBPath)
	if err != nil {
		appLog.Error("failed to open store", err, "db_path", conf.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	profiles := digest.Profiles{Board: conf.Urgency.Dashboard, Alerts: conf.Urgency.Deadlines}

	switch {
	case flags.importSrc != "":
		if err := importCalendar(ctx, conf, st, flags.importSrc); err != nil {
			appLog.Error("import failed", err)
			os.Exit(1)
		}
	case flags.once:
		report, err := digest.RunOnce(ctx, st, dates.Today(), profiles)
		if err != nil {
			appLog.Error("digest failed", err)
			os.Exit(1)
		}
		if err := report.WriteText(os.Stdout); err != nil {
			appLog.Error("failed to write digest", err)
			os.Exit(1)
		}
	default:
		serve(ctx, conf, st, profiles)
	}

	appLog.Info("campaigncal exiting")
}

func serve(ctx context.Context, conf *config.Config, st *store.Store, profiles digest.Profiles) {
	var sched *digest.Scheduler
	if conf.DigestCron != "" {
		s, err := digest.NewScheduler(conf.DigestCron, st, profiles)
		if err != nil {
			appLog.Error("digest scheduler disabled", err, "digest", conf.DigestCron)
		} else {
			sched = s
			sched.Start()
		}
	}

	srv := web.NewServer(conf, st, catalog.Default())
	if err := srv.Run(ctx); err != nil {
		appLog.Error("HTTP server error", err)
	}

	if sched != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sched.Stop(stopCtx)
		cancel()
	}
}

// importCalendar bulk-creates events from an .ics file or URL, each with the
// fixed import task sequence. Events already imported from the same UID are
// refreshed instead of duplicated.
func importCalendar(ctx context.Context, conf *config.Config, st *store.Store, src string) error {
	body, err := ics.NewFetcher(conf.ICSCacheDir).Load(ctx, src)
	if err != nil {
		return err
	}
	today := dates.Today()
	events, err := ics.Import(bytes.NewReader(body), ics.ImportOptions{
		Location: time.Local,
		From:     today,
		Until:    dates.AddDays(today, conf.ImportHorizonDays),
	})
	if err != nil {
		return err
	}

	gen := taskgen.New(catalog.Default())
	created, refreshed := 0, 0
	for i := range events {
		ev := &events[i]
		tasks, err := gen.Generate(taskgen.Request{
			Anchors:         taskgen.Anchors(*ev),
			Strategy:        taskgen.FixedImport(),
			DefaultAssignee: conf.DefaultAssignee,
		})
		if err != nil {
			appLog.Warn("skipping imported event", "title", ev.Title, "error", err.Error())
			continue
		}
		ev.Tasks = tasks
		isNew, err := st.ImportEvent(ctx, ev)
		if err != nil {
			appLog.Warn("skipping imported event", "title", ev.Title, "error", err.Error())
			continue
		}
		if isNew {
			created++
		} else {
			refreshed++
		}
	}
	appLog.Info("import finished", "parsed", len(events), "created", created, "refreshed", refreshed)
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./campaigncal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.importSrc, "import", "", "Import events from an .ics file or URL and exit")
	flag.BoolVar(&cfg.once, "once", false, "Print today's digest and exit")

	flag.Parse()

	return cfg
}
