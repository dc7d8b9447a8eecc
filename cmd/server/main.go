package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/config"
	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/notify"
	"github.com/mamadbah2/antkeeper/internal/repository/jsonfile"
	"github.com/mamadbah2/antkeeper/internal/repository/mongodb"
	"github.com/mamadbah2/antkeeper/internal/repository/sheets"
	"github.com/mamadbah2/antkeeper/internal/repository/sqlite"
	"github.com/mamadbah2/antkeeper/internal/scheduler"
	"github.com/mamadbah2/antkeeper/internal/server/handlers"
	"github.com/mamadbah2/antkeeper/internal/server/router"
	coloniessvc "github.com/mamadbah2/antkeeper/internal/service/colonies"
	commandsvc "github.com/mamadbah2/antkeeper/internal/service/commands"
	reminderssvc "github.com/mamadbah2/antkeeper/internal/service/reminders"
	reportingsvc "github.com/mamadbah2/antkeeper/internal/service/reporting"
	settingssvc "github.com/mamadbah2/antkeeper/internal/service/settings"
	"github.com/mamadbah2/antkeeper/internal/service/timeseries"
	whatsappsvc "github.com/mamadbah2/antkeeper/internal/service/whatsapp"
	"github.com/mamadbah2/antkeeper/internal/store"
	whatsappclient "github.com/mamadbah2/antkeeper/pkg/clients/whatsapp"
	"github.com/mamadbah2/antkeeper/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}
	clock := clockwork.NewRealClock()

	persister, closePersister, err := openPersister(cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closePersister()

	st, err := store.Open(context.Background(), persister, clock.Now().In(loc), baseLogger.Named("store"))
	if err != nil {
		baseLogger.Fatal("failed to load document", zap.Error(err))
	}

	var journal sheets.Journal = sheets.Discard{}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		journal = sheetsRepo
		baseLogger.Info("google sheets journal enabled")
	}

	colonySvc := coloniessvc.NewService(st, clock, loc, baseLogger.Named("svc.colonies"))
	seriesSvc := timeseries.NewService(st, journal, clock, loc, baseLogger.Named("svc.timeseries"))
	reminderSvc := reminderssvc.NewService(st, journal, clock, loc, baseLogger.Named("svc.reminders"))
	settingsSvc := settingssvc.NewService(st, baseLogger.Named("svc.settings"))
	reportingSvc := reportingsvc.NewService(st, loc, baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(colonySvc, reminderSvc, seriesSvc, loc, baseLogger.Named("svc.commands"))

	var whatsSender whatsappclient.Sender
	if cfg.WhatsApp.Enabled() {
		whatsSender = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp client enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, webhook replies and whatsapp notifications disabled")
	}
	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsSender, commandDispatcher, baseLogger.Named("svc.whatsapp"))

	channelDeps := notify.Deps{
		Logger:        baseLogger.Named("notify.desktop"),
		WhatsApp:      whatsSender,
		TelegramToken: cfg.Telegram.BotToken,
	}
	dispatcher := notify.NewDispatcher(notify.BuildChannels(settingsSvc.Get(), channelDeps), notify.DefaultChannelTimeout, baseLogger.Named("notify"))

	sched := scheduler.NewScheduler(st, dispatcher, reportingSvc, scheduler.Options{
		Interval:       cfg.Scheduler.Interval,
		DueWindow:      cfg.Scheduler.DueWindow,
		DigestSchedule: cfg.Scheduler.DigestSchedule,
		Location:       loc,
		Clock:          clock,
	}, baseLogger.Named("scheduler"))

	settingsSvc.OnChange(func(s models.Settings) {
		sched.Restart(notify.BuildChannels(s, channelDeps))
	})

	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	engine := router.New(router.Handlers{
		Colonies: handlers.NewColonyHandler(colonySvc, seriesSvc, reminderSvc, baseLogger.Named("handlers.colonies")),
		Calendar: handlers.NewCalendarHandler(st, loc, clock.Now, baseLogger.Named("handlers.calendar")),
		Settings: handlers.NewSettingsHandler(settingsSvc, baseLogger.Named("handlers.settings")),
		Chat:     handlers.NewChatHandler(messagingSvc, baseLogger.Named("handlers.chat")),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		baseLogger.Error("scheduler did not stop in time", zap.Error(err))
	}
}

// openPersister selects the document backend from STORAGE_DRIVER.
func openPersister(cfg *config.Config, log *zap.Logger) (store.Persister, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		repo, err := sqlite.NewRepository(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using sqlite storage", zap.String("path", cfg.Storage.SQLitePath))
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Error("failed to close sqlite database", zap.Error(err))
			}
		}, nil
	case config.StorageMongoDB:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using mongodb storage", zap.String("db", cfg.MongoDB.DBName))
		return repo, func() {
			if err := repo.Close(context.Background()); err != nil {
				log.Error("failed to close mongodb connection", zap.Error(err))
			}
		}, nil
	default:
		repo := jsonfile.NewRepository(cfg.Storage.DataFile)
		log.Info("using json file storage", zap.String("path", repo.Path()))
		return repo, func() {}, nil
	}
}
