package app

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"eliteexplore/config"
	"eliteexplore/database"
	"eliteexplore/handlers"
	"eliteexplore/logger"
	"eliteexplore/media"
	"eliteexplore/middleware"
	"eliteexplore/notify"
	"eliteexplore/payments"
	"eliteexplore/websocket"
)

const (
	startupTimeout = time.Minute
	sweepInterval  = time.Minute
)

var CoreModule = fx.Module("core",
	fx.Provide(
		config.Load,
		logger.New,
	),
)

var StorageModule = fx.Module("storage",
	fx.Provide(
		provideMongo,
		provideDatabase,
		database.NewCollections,
		provideStores,
	),
	fx.Invoke(ensureIndexes),
)

var IntegrationsModule = fx.Module("integrations",
	fx.Provide(
		provideIntents,
		provideUploader,
		provideHub,
		provideNotifier,
	),
)

var HTTPModule = fx.Module("http",
	fx.Provide(
		provideTokens,
		provideLimiter,
		provideHandler,
		provideRouter,
	),
	fx.Invoke(startServer),
)

// New assembles the service. Extra options are appended, which lets tests
// swap providers with fx.Replace or fx.Decorate.
func New(opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		CoreModule,
		StorageModule,
		IntegrationsModule,
		HTTPModule,
	}
	return fx.New(append(base, opts...)...)
}

func provideMongo(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("disconnecting from mongodb")
			return database.Disconnect(ctx, client)
		},
	})
	return client, nil
}

func provideDatabase(client *mongo.Client, cfg *config.Config) *mongo.Database {
	return client.Database(cfg.DBName)
}

func provideStores(c *database.Collections) handlers.Stores {
	return handlers.Stores{
		Users:             c.Users,
		Tours:             c.Tours,
		Guides:            c.Guides,
		Stories:           c.Stories,
		Bookings:          c.Bookings,
		Applications:      c.Applications,
		Payments:          c.Payments,
		PushSubscriptions: c.PushSubscriptions,
	}
}

func ensureIndexes(lc fx.Lifecycle, db *mongo.Database, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go database.EnsureIndexes(context.Background(), db, log)
			return nil
		},
	})
}

func provideIntents(cfg *config.Config, log *zap.Logger) payments.IntentCreator {
	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set; payment intents are disabled")
		return payments.Disabled{}
	}
	return payments.NewStripeClient(cfg.StripeSecretKey)
}

func provideUploader(cfg *config.Config, log *zap.Logger) (media.Uploader, error) {
	if cfg.CloudinaryURL == "" {
		log.Warn("CLOUDINARY_URL not set; photo uploads are disabled")
		return media.Disabled{}, nil
	}
	return media.NewCloudinary(cfg.CloudinaryURL)
}

func provideHub(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *websocket.Hub {
	hub := websocket.NewHub(cfg.CORSOrigins, log.Named("ws"))
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run()
			return nil
		},
		OnStop: func(context.Context) error {
			hub.Stop()
			return nil
		},
	})
	return hub
}

func provideNotifier(hub *websocket.Hub, c *database.Collections, cfg *config.Config, log *zap.Logger) *notify.Notifier {
	var pusher notify.Pusher
	if cfg.PushEnabled() {
		pusher = notify.WebPush{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subject:    cfg.VAPIDSubject,
		}
	} else {
		log.Warn("VAPID keys not set; web push is disabled")
	}
	return notify.New(hub, c.PushSubscriptions, pusher, log.Named("notify"))
}

func provideTokens(cfg *config.Config) *middleware.Tokens {
	return middleware.NewTokens(cfg.TokenSecret, cfg.TokenTTL)
}

// provideLimiter also runs the periodic sweep that forgets idle clients.
func provideLimiter(lc fx.Lifecycle, cfg *config.Config) *middleware.IPRateLimiter {
	limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						limiter.Sweep()
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(done)
			return nil
		},
	})
	return limiter
}

type handlerParams struct {
	fx.In

	Stores   handlers.Stores
	Client   *mongo.Client
	Tokens   *middleware.Tokens
	Intents  payments.IntentCreator
	Uploader media.Uploader
	Notifier *notify.Notifier
	Config   *config.Config
	Log      *zap.Logger
}

func provideHandler(p handlerParams) *handlers.Handler {
	return handlers.New(handlers.Deps{
		Stores:   p.Stores,
		Tokens:   p.Tokens,
		Intents:  p.Intents,
		Uploader: p.Uploader,
		Notifier: p.Notifier,
		Ping: func(ctx context.Context) error {
			return p.Client.Ping(ctx, readpref.Primary())
		},
		VAPIDPublicKey: p.Config.VAPIDPublicKey,
		Log:            p.Log,
	})
}
