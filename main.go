package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/cache"
	twitchclient "github.com/akihito104/yttt-sub001/infrastructure/clients/twitch"
	youtubeclient "github.com/akihito104/yttt-sub001/infrastructure/clients/youtube"
	"github.com/akihito104/yttt-sub001/infrastructure/configuration"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
	"github.com/akihito104/yttt-sub001/infrastructure/persistence"
	"github.com/akihito104/yttt-sub001/infrastructure/pubsub"
	"github.com/akihito104/yttt-sub001/infrastructure/servicebus"
	"github.com/akihito104/yttt-sub001/infrastructure/utils"
	"github.com/akihito104/yttt-sub001/infrastructure/worker"
	httpHandler "github.com/akihito104/yttt-sub001/interfaces/http"
	"github.com/akihito104/yttt-sub001/server"
	"github.com/akihito104/yttt-sub001/usecase"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	if loaded := configuration.LoadEnvFromFile("config.env", ".env"); len(loaded) > 0 {
		logger.GetLogger().WithField("files", loaded).Info("Loaded env files")
		configuration.Reload()
	}
	app := configuration.C.App
	syncCfg := configuration.C.Sync

	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		os.Exit(1)
	}
	defer db.Close()
	if err := persistence.EnsureSchema(db); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring cache schema")
		os.Exit(1)
	}
	logger.GetLogger().Info("Database connected.")

	redisCfg := configuration.C.RedisClient
	redisClient, err := cache.NewCache(ctx, redisCfg.Addr(), redisCfg.Username, redisCfg.Password)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - channel sections and background worker disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.GetLogger().Info("Redis client initialized successfully.")
	}

	youtubeRemote := initYouTube(ctx)
	twitchRemote := initTwitch(ctx)

	notifier, closeNotifier := initNotifier(ctx)
	defer closeNotifier()

	syncUseCase, timelineUseCase := buildUseCases(db, redisClient, youtubeRemote, twitchRemote, notifier, syncCfg)

	checks := map[string]httpHandler.Check{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	router := server.InitiateRouter(
		server.RouterConfig{SecretKey: app.SecretKey, CORSOrigins: app.CORSOrigins},
		httpHandler.NewHealthHandler(checks),
		httpHandler.NewTimelineHandler(timelineUseCase),
		httpHandler.NewSyncHandler(syncUseCase),
	)

	var (
		taskServer *asynq.Server
		scheduler  *asynq.Scheduler
	)
	if configuration.C.Worker.Enabled && redisClient != nil {
		taskServer, scheduler, err = startWorker(syncUseCase)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Could not start background worker")
		}
	} else if configuration.C.Worker.Enabled {
		logger.GetLogger().Warn("Worker enabled but Redis is not available; periodic sync disabled")
	}

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if taskServer != nil {
		taskServer.Shutdown()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

func initYouTube(ctx context.Context) repository.IYouTube {
	cfg := configuration.GetYouTubeConfig()
	logger.GetLogger().WithFields(map[string]interface{}{
		"hasOAuth":  cfg.HasOAuth(),
		"hasAPIKey": cfg.APIKey != "",
	}).Info("Loaded YouTube configuration state")
	if !cfg.Enabled() {
		logger.GetLogger().Info("YouTube credentials not configured - YouTube sync disabled")
		return nil
	}
	client, err := youtubeclient.NewYouTubeClient(ctx, &youtubeclient.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		APIKey:       cfg.APIKey,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to initialize YouTube client - YouTube sync disabled")
		return nil
	}
	return client
}

func initTwitch(ctx context.Context) repository.ITwitch {
	cfg := configuration.GetTwitchConfig()
	if !cfg.Enabled() {
		logger.GetLogger().Info("Twitch credentials not configured - Twitch sync disabled")
		return nil
	}
	client, err := twitchclient.NewTwitchClient(ctx, &twitchclient.Config{
		BaseURL:           cfg.BaseURL,
		ClientID:          cfg.ClientID,
		ClientSecret:      cfg.ClientSecret,
		AccessToken:       cfg.AccessToken,
		RefreshToken:      cfg.RefreshToken,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to initialize Twitch client - Twitch sync disabled")
		return nil
	}
	return client
}

// initNotifier returns nil when no notifier is configured or it cannot be reached.
func initNotifier(ctx context.Context) (repository.ISyncNotifier, func()) {
	noop := func() {}
	switch configuration.C.Notifier.Kind {
	case "pubsub":
		cfg := configuration.C.Pubsub
		client, err := gpubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
			return nil, noop
		}
		publisher, err := pubsub.NewSyncPublisher(ctx, client, cfg.Topic)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while preparing sync topic")
			_ = client.Close()
			return nil, noop
		}
		return publisher, func() {
			publisher.Close()
			_ = client.Close()
		}
	case "servicebus":
		cfg := configuration.C.ServiceBus
		client, err := servicebus.NewClient(cfg.ConnectionString, cfg.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - sync events disabled")
			return nil, noop
		}
		sender, err := servicebus.NewSyncSender(client, cfg.Queue)
		if err != nil {
			_ = client.Close(ctx)
			return nil, noop
		}
		return sender, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			sender.Close(closeCtx)
			_ = client.Close(closeCtx)
		}
	case "":
		return nil, noop
	}
	logger.GetLogger().WithField("kind", configuration.C.Notifier.Kind).Warn("Unknown notifier kind - sync events disabled")
	return nil, noop
}

func buildUseCases(
	db *sqlx.DB,
	redisClient *redis.Client,
	yt repository.IYouTube,
	tw repository.ITwitch,
	notifier repository.ISyncNotifier,
	cfg configuration.Sync,
) (usecase.ISyncUseCase, usecase.ITimelineUseCase) {
	clock := utils.SystemClock{}
	channelStore := persistence.NewEntityRepository[model.Channel](db, persistence.KindChannel)
	videoStore := persistence.NewEntityRepository[model.YouTubeVideo](db, persistence.KindVideo)
	streamStore := persistence.NewListRepository[model.TwitchStream](db)
	envelopes := persistence.NewEnvelopeRepository(db)

	var sectionStore repository.IChannelSectionStore
	if redisClient != nil {
		sectionStore = cache.NewChannelSectionCache(redisClient)
	}

	syncCfg := usecase.SyncUseCaseConfig{
		Subscriptions:         persistence.NewListRepository[model.Subscription](db),
		Streams:               streamStore,
		ChannelStore:          channelStore,
		Cleanup:               usecase.NewCleanup(persistence.NewCleanupRepository(db), sectionStore),
		Notifier:              notifier,
		Clock:                 clock,
		SubscriptionsMaxAge:   cfg.SubscriptionsMaxAge,
		FollowedStreamsMaxAge: cfg.FollowedStreamsMaxAge,
	}
	timelineCfg := usecase.TimelineUseCaseConfig{
		Videos:     videoStore,
		Streams:    streamStore,
		VideoLimit: cfg.TimelineVideoLimit,
	}

	var ytChannels, twChannels *usecase.SourceOfTruth[model.Channel]
	if yt != nil {
		syncCfg.YouTube = yt
		ytChannels = usecase.NewSourceOfTruth[model.Channel](channelStore, yt.FetchChannels, clock, repository.YouTubeMaxIDsPerRequest, cfg.ChannelMaxAge)
		syncCfg.Videos = usecase.NewSourceOfTruth[model.YouTubeVideo](videoStore, yt.FetchVideos, clock, repository.YouTubeMaxIDsPerRequest, cfg.VideoMaxAge)
		syncCfg.Playlists = usecase.NewPlaylistSync(yt, persistence.NewPlaylistRepository(db), usecase.NewStalenessPolicy(), clock)
		if sectionStore != nil {
			syncCfg.Sections = usecase.NewChannelPlaylists(yt, sectionStore, cfg.ChannelSectionsTTL)
		}
	}
	if tw != nil {
		syncCfg.Twitch = tw
		twChannels = usecase.NewSourceOfTruth[model.Channel](channelStore, tw.FetchUsers, clock, repository.TwitchMaxIDsPerRequest, cfg.ChannelMaxAge)
		self := usecase.NewSelfResolver(envelopes, "twitch:me", tw.FetchMe, clock, 24*time.Hour)
		followings := usecase.NewFollowingsSync(tw, persistence.NewFollowingsRepository(db), self, clock, cfg.FollowingsMaxAge)
		schedules := usecase.NewScheduleSync(tw, envelopes, clock, cfg.ScheduleMaxAge, cfg.EmptyScheduleMaxAge)
		syncCfg.TwitchSelf = self
		syncCfg.Followings = followings
		syncCfg.Schedules = schedules
		timelineCfg.Followings = followings
		timelineCfg.Schedules = schedules
	}
	channels := usecase.NewChannelResolver(ytChannels, twChannels)
	syncCfg.Channels = channels
	timelineCfg.Channels = channels

	return usecase.NewSyncUseCase(syncCfg), usecase.NewTimelineUseCase(timelineCfg)
}

// startWorker starts the task server and the periodic scheduler. Both are
// stopped with Shutdown.
func startWorker(syncUseCase usecase.ISyncUseCase) (*asynq.Server, *asynq.Scheduler, error) {
	redisOpt := worker.RedisOpt(configuration.C.RedisClient)
	client := asynq.NewClient(redisOpt)

	mux := asynq.NewServeMux()
	worker.NewTaskHandler(syncUseCase, client).Register(mux)
	srv := worker.NewServer(redisOpt, configuration.C.Worker.Concurrency)
	if err := srv.Start(mux); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("start task server: %w", err)
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: logger.GetLogger()})
	if err := worker.RegisterPeriodic(scheduler, configuration.C.Worker); err != nil {
		return srv, nil, err
	}
	if err := scheduler.Start(); err != nil {
		return srv, nil, fmt.Errorf("start scheduler: %w", err)
	}
	logger.GetLogger().Info("Background worker started")
	return srv, scheduler, nil
}
