package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/neumannchess/server/internal/auth"
	"github.com/neumannchess/server/internal/config"
	"github.com/neumannchess/server/internal/db"
	"github.com/neumannchess/server/internal/httpapi"
	"github.com/neumannchess/server/internal/identity"
	"github.com/neumannchess/server/internal/obslog"
	"github.com/neumannchess/server/internal/rules"
	"github.com/neumannchess/server/internal/session"
	"github.com/neumannchess/server/internal/settle"
)

func main() {
	_ = godotenv.Load()

	if err := obslog.InitFromEnv(); err != nil {
		os.Stderr.WriteString("logger init: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := obslog.L()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config_load", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db_open", zap.Error(err))
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatal("db_migrate", zap.Error(err))
	}

	rdb, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis_connect", zap.Error(err))
	}
	defer rdb.Close()

	users := identity.NewRepository(database)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(users, jwtService, cfg.BcryptCost)

	store := session.NewStore(rdb, cfg.SessionTTL)
	archive := session.NewRepository(database)
	manager := session.NewManager(rdb, store, rules.NewEngine(), users)
	manager.AttachArchive(archive)
	manager.AttachSettler(settle.NewEngine(database))

	router := httpapi.NewRouter(
		httpapi.NewAuthHandler(authService, users),
		httpapi.NewGameHandler(manager, archive, cfg.HistoryPageSize),
		jwtService,
		users,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server_listen", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server_listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("server_shutdown_begin")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown", zap.Error(err))
	}
	log.Info("server_exit")
}
