package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/xo-arena/internal/broadcast"
	"github.com/rocketscienceinc/xo-arena/internal/config"
	"github.com/rocketscienceinc/xo-arena/internal/pkg"
	"github.com/rocketscienceinc/xo-arena/internal/registry"
	"github.com/rocketscienceinc/xo-arena/internal/repository"
	"github.com/rocketscienceinc/xo-arena/internal/repository/storage"
	"github.com/rocketscienceinc/xo-arena/internal/service"
	"github.com/rocketscienceinc/xo-arena/internal/usecase"
	"github.com/rocketscienceinc/xo-arena/transport/rest"
	"github.com/rocketscienceinc/xo-arena/transport/websocket"
)

var (
	ErrAddrNotFound   = errors.New("redis address string is empty")
	ErrSecretNotFound = errors.New("jwt secret key is empty")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	if conf.JWTSecretKey == "" {
		return ErrSecretNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	roomRepo := repository.NewRoomRepository(redisStorage)
	gameRepo := repository.NewGameRepository(redisStorage)
	playerRepo := repository.NewPlayerRepository(redisStorage)

	connRegistry := registry.New(logger)
	dispatcher := broadcast.NewDispatcher(logger, connRegistry)

	authService := service.NewAuthService(conf.JWTSecretKey)
	playerService := service.NewPlayerService(playerRepo)
	gameLocks := pkg.NewKeyedMutex()
	matchmaker := service.NewMatchmakerService(logger, gameLocks, roomRepo, gameRepo, playerRepo)
	gamePlay := service.NewGamePlayService(logger, conf.Game, gameLocks, roomRepo, gameRepo, playerRepo, dispatcher)
	reconnect := service.NewReconnectService(logger, conf.Game.RetentionWindow, gameRepo, playerRepo, connRegistry)

	defer gamePlay.Shutdown()

	gameUseCase := usecase.NewGameUseCase(logger, matchmaker, gamePlay, reconnect, connRegistry, dispatcher)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		router := rest.NewRouter(
			logger,
			authService,
			rest.NewPingHandler(),
			rest.NewPlayerHandler(logger, playerService),
			rest.NewGameHandler(logger, gameUseCase),
		)
		if httpErr := rest.Start(ctx, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, authService, gameUseCase)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
