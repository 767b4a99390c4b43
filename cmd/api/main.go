package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ardanlabs/conf"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/auth"
	"eventdesk/backend/internal/commands"
	"eventdesk/backend/internal/pkg/config"
	"eventdesk/backend/internal/pkg/logger"
	"eventdesk/backend/internal/pkg/repository/postgresql"
	"eventdesk/backend/internal/router"
	"eventdesk/backend/internal/service/hashing"
)

const namespace = "EVENTDESK"

type settings struct {
	Web struct {
		Host            string        `conf:"default:0.0.0.0:8080"`
		ReadTimeout     time.Duration `conf:"default:10s"`
		WriteTimeout    time.Duration `conf:"default:30s"`
		ShutdownTimeout time.Duration `conf:"default:15s"`
	}
	Config string `conf:"default:./config.yaml"`
	Log    struct {
		Level string `conf:"default:info"`
	}
	Auth struct {
		AccessTTL  time.Duration `conf:"default:15m"`
		RefreshTTL time.Duration `conf:"default:168h"`
	}
	Media struct {
		LinkTTL time.Duration `conf:"default:1h"`
	}
	Stats struct {
		CounterTTL time.Duration `conf:"default:72h"`
	}
	Migrate bool `conf:"default:true"`
}

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
}

func run() error {
	var s settings
	if err := conf.Parse(os.Args[1:], namespace, &s); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, err := conf.Usage(namespace, &s)
			if err != nil {
				return errors.Wrap(err, "generating usage")
			}
			fmt.Println(usage)
			return commands.ErrHelp
		}
		return errors.Wrap(err, "parsing settings")
	}

	log, err := logger.New("eventdesk-api", s.Log.Level)
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer log.Sync()

	if out, err := conf.String(&s); err == nil {
		log.Info("starting", zap.String("settings", out))
	}

	cfg, err := config.NewConfig(s.Config)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Database

	db, err := postgresql.New(ctx, postgresql.Config{
		User:       cfg.DBUsername,
		Password:   cfg.DBPassword,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		Name:       cfg.DBName,
		DisableTLS: cfg.DisableTLS,
		Debug:      cfg.Debug,
	})
	if err != nil {
		return errors.Wrap(err, "connecting to database")
	}
	defer db.Close()

	if s.Migrate {
		if err := commands.MigrateUP(ctx, db, log); err != nil {
			return err
		}
	}

	created, err := commands.SeedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("seeded admin account", zap.String("email", cfg.AdminEmail))
	}

	// =========================================================================
	// Redis

	var redisDB *redis.Client
	if cfg.RedisAddr != "" {
		redisDB = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := redisDB.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("redis unavailable, live counters disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = redisDB.Close()
			redisDB = nil
		} else {
			defer redisDB.Close()
		}
	}

	// =========================================================================
	// HTTP

	a, err := auth.New(cfg.JWTKey, s.Auth.AccessTTL, s.Auth.RefreshTTL)
	if err != nil {
		return err
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	app := web.NewApp(log)
	router.NewRouter(app, db, redisDB, a, hashing.NewSigner(cfg.JWTKey, s.Media.LinkTTL), router.Config{
		MediaDir:    cfg.MediaDir,
		CorsOrigins: cfg.CorsOrigins,
		Location:    loc,
		CounterTTL:  s.Stats.CounterTTL,
	}, log).Init()

	srv := &http.Server{
		Addr:         s.Web.Host,
		Handler:      app,
		ReadTimeout:  s.Web.ReadTimeout,
		WriteTimeout: s.Web.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", s.Web.Host), zap.String("timezone", loc.String()))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server error")

	case <-ctx.Done():
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Web.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return errors.Wrap(err, "graceful shutdown")
		}
	}

	return nil
}
