package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
	"github.com/rocketscienceinc/xo-arena/internal/registry"
)

const (
	maxMessageSize  = 4096
	pingEvery       = 15 * time.Second
	shutdownTimeout = 5 * time.Second
)

type uGame interface {
	Connect(participant entity.ParticipantID, conn registry.Conn)
	Disconnect(participant entity.ParticipantID, conn registry.Conn)

	ReadyToStart(ctx context.Context, participant entity.ParticipantID, req event.ReadyToStartRequest) error
	MakeMove(ctx context.Context, participant entity.ParticipantID, req event.PlayerMoveRequest, conn registry.Conn) error
	Reconnect(ctx context.Context, participant entity.ParticipantID, req event.ReconnectRequest, conn registry.Conn) (*entity.Snapshot, error)
}

type identityResolver interface {
	ResolveIdentity(token string) (entity.ParticipantID, error)
}

type handlerFunc func(ctx context.Context, participant entity.ParticipantID, msg *Message, conn *connection) error

type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	identity identityResolver
	uGame    uGame

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, identity identityResolver, uGame uGame) *Server {
	server := &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		identity: identity,
		uGame:    uGame,
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[event.ActionReadyToStart] = server.handleReadyToStart
	server.handlers[event.ActionPlayerMove] = server.handlePlayerMove
	server.handlers[event.ActionReconnectToGame] = server.handleReconnect

	return server
}

func (that *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/ws", that.HandleWS)

	return router
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// HandleWS authenticates the caller and upgrades the request. GET /ws?token=...
func (that *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "HandleWS")

	participant, err := that.identity.ResolveIdentity(tokenFromRequest(r))
	if err != nil {
		log.Info("rejected websocket connection", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ws)
	that.uGame.Connect(participant, conn)

	log = log.With("playerID", participant)
	log.Info("websocket connection established")

	go that.keepAlive(conn)
	that.readLoop(r.Context(), participant, conn)

	that.uGame.Disconnect(participant, conn)
	_ = conn.Close()

	log.Info("websocket connection closed")
}

func (that *Server) readLoop(ctx context.Context, participant entity.ParticipantID, conn *connection) {
	log := that.logger.With("method", "readLoop", "playerID", participant)

	conn.conn.SetReadLimit(maxMessageSize)
	_ = conn.conn.SetReadDeadline(time.Now().Add(2 * pingEvery))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(2 * pingEvery))
	})

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}

			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			log.Warn("unknown action", "action", msg.Action)
			continue
		}

		if err = handler(ctx, participant, &msg, conn); err != nil {
			log.Info("failed to process message", "action", msg.Action, "error", err)
		}
	}
}

func (that *Server) keepAlive(conn *connection) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		case <-conn.closed:
			return
		}
	}
}

func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

	return strings.TrimSpace(token)
}
