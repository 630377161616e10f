package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nntruong1907/CT449-contactbook-backend"
	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/events"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence/cache"
	"github.com/nntruong1907/CT449-contactbook-backend/pubsub"
	"github.com/nntruong1907/CT449-contactbook-backend/user"

	_ "github.com/nntruong1907/CT449-contactbook-backend/pubsub/nats"
	httpTransport "github.com/nntruong1907/CT449-contactbook-backend/transport/http"
	pubsubTransport "github.com/nntruong1907/CT449-contactbook-backend/transport/pubsub"
)

func main() {
	app := &cli.App{
		Name:  "contactbook",
		Usage: "contact book user-account service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Usage:   "work directory holding config.yaml and .env",
				EnvVars: []string{"CONTACTBOOK_PATH"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "http port",
				EnvVars: []string{"CONTACTBOOK_HTTP_PORT"},
			},
		},
		Commands: []*cli.Command{
			findCommand,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err.Error())
	}
}

func run(cli *cli.Context) error {
	if err := conf.LoadEnv(cli); err != nil {
		return err
	}

	cfg, err := conf.LoadConfig(conf.Path)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	log = log.With(zap.String("instance", cfg.Name))

	users, err := persistence.NewUserRepository(cfg.Persistence)
	if err != nil {
		return err
	}
	defer func() {
		users.Close()
	}()

	log.Info("persistence ready", zap.String("driver", cfg.Persistence.Driver.String()))

	if cfg.Cache.Enabled {
		users, err = cache.NewUserRepository(users, cfg.Cache)
		if err != nil {
			return err
		}

		log.Info("cache ready", zap.String("addr", cfg.Cache.Addr()))
	}

	hasher := user.NewBcryptHasher(cfg.Hashing.Cost, cfg.Hashing.Workers)

	svc := contactbook.NewService(users, hasher)
	svc = contactbook.LoggingMiddleware(log)(svc)

	if cfg.EventBus.Enabled {
		bus, err := pubsub.NewPubSub(cfg.EventBus)
		if err != nil {
			return err
		}
		defer bus.Close()

		svc = contactbook.EventMiddleware(events.NewPublisher(bus), log)(svc)
		log.Info("event bus ready", zap.String("provider", cfg.EventBus.Provider.String()))
	}

	endpoints := contactbook.MakeEndpoints(svc)

	if nats := cfg.Transports.NATS; nats.Enabled {
		ps, err := pubsub.NewPubSub(conf.EventBus{
			Provider: conf.NATS,
			URL:      natsURL(nats.Internal),
		})
		if err != nil {
			return err
		}
		defer ps.Close()

		if err := pubsubTransport.Serve(ps, nats.ReqPrefix, endpoints); err != nil {
			return err
		}

		log.Info("nats transport ready", zap.String("prefix", nats.ReqPrefix))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.Transports.HTTP.Enabled {
		log.Info("http transport disabled")
		<-ctx.Done()
		return nil
	}

	if !cfg.Log.Dev {
		gin.SetMode(gin.ReleaseMode)
	}

	r := httpTransport.NewRouter(endpoints, log)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Transports.HTTP.Internal.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("http transport ready", zap.String("addr", srv.Addr))

	if cfg.Registry.Enabled {
		deregister, err := register(cfg, log)
		if err != nil {
			log.Error(err.Error(), zap.String("registry", "consul"))
		} else {
			defer deregister()
		}
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
