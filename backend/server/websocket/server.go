package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/adwski/signal-relay/backend/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultShutdownDeadline = 10 * time.Second

	defaultSendQueueSize  = 64
	defaultMaxMessageSize = 64 << 10

	defaultWebsocketReadBufferSize     = 10000
	defaultWebsocketWriteBufferSize    = 10000
	defaultWebSocketHandshakeTimeout   = 3 * time.Second
	defaultWebSocketCloseWriteDeadline = 2 * time.Second
	defaultWebSocketWriteDeadline      = 5 * time.Second

	// defaultPongWait - defaultPingInterval == is how long we give client to respond
	defaultPingInterval = 5 * time.Second
	defaultPongWait     = 7 * time.Second
)

var (
	ErrUnexpected = errors.New("unexpected server error")
)

type (
	SignalingService interface {
		CreateSignalingSession(connID string, wire model.Wire) error
		DeleteSignalingSession(connID string) error
		HandleEvent(connID string, raw []byte)
	}

	Config struct {
		Logger           *zerolog.Logger
		SignalingService SignalingService
		ListenAddr       string
		AllowedOrigins   []string
		SendQueueSize    int
		MaxMessageSize   int64
	}

	Server struct {
		svc SignalingService
		ws  *websocket.Upgrader
		*http.Server

		// sessions outlive the upgrade request and are canceled on shutdown
		sessions      context.Context
		closeSessions context.CancelFunc
		conns         *sync.WaitGroup
		connsMx       *sync.Mutex
		queueSize     int
		maxMsgSize    int64

		logger zerolog.Logger
	}
)

func NewServer(cfg Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		logger:        cfg.Logger.With().Str("component", "websocket-server").Logger(),
		svc:           cfg.SignalingService,
		sessions:      ctx,
		closeSessions: cancel,
		conns:         &sync.WaitGroup{},
		connsMx:       &sync.Mutex{},
		queueSize:     cfg.SendQueueSize,
		maxMsgSize:    cfg.MaxMessageSize,
		ws: &websocket.Upgrader{
			HandshakeTimeout: defaultWebSocketHandshakeTimeout,
			ReadBufferSize:   defaultWebsocketReadBufferSize,
			WriteBufferSize:  defaultWebsocketWriteBufferSize,
			CheckOrigin:      originChecker(cfg.AllowedOrigins),
		},
	}
	if srv.queueSize <= 0 {
		srv.queueSize = defaultSendQueueSize
	}
	if srv.maxMsgSize <= 0 {
		srv.maxMsgSize = defaultMaxMessageSize
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", srv.signal)

	srv.Server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}
	return srv
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func (srv *Server) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		srv.logger.Debug().Msg("server stopped")
		wg.Done()
	}()

	errSrv := make(chan error)
	go func() {
		errSrv <- srv.ListenAndServe()
	}()

	srv.logger.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-errSrv:
		if !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Join(ErrUnexpected, err)
		}
	case <-ctx.Done():
		shCtx, shCancel := context.WithTimeout(context.Background(), defaultShutdownDeadline)
		defer shCancel()
		if err := srv.Shutdown(shCtx); err != nil {
			srv.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}
	// hijacked connections are not tracked by http.Server
	srv.stopSessions()
	srv.conns.Wait()
}

// stopSessions cancels live sessions. Connections upgraded afterwards are closed right away.
func (srv *Server) stopSessions() {
	srv.connsMx.Lock()
	defer srv.connsMx.Unlock()
	srv.closeSessions()
}

func (srv *Server) track() bool {
	srv.connsMx.Lock()
	defer srv.connsMx.Unlock()
	if srv.sessions.Err() != nil {
		return false
	}
	srv.conns.Add(1)
	return true
}

func (srv *Server) signal(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.ws.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	wire := model.NewWire(srv.queueSize)

	ctx, cancel := context.WithCancel(srv.sessions) // long-living wire context

	logger := srv.logger.With().
		Str("connectionID", connID).
		Str("remote", r.RemoteAddr).
		Logger()

	if !srv.track() {
		logger.Debug().Msg("shutting down, rejecting connection")
		cancel()
		closeConn(conn, &logger)
		return
	}

	err = srv.svc.CreateSignalingSession(connID, wire)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create signaling session")
		cancel()
		closeConn(conn, &logger)
		srv.conns.Done()
		return
	}
	logger.Debug().Msg("signaling session created")

	go func() {
		defer srv.conns.Done()
		srv.handleWSConn(ctx, cancel, conn, connID, wire, &logger)
	}()
}

func (srv *Server) destroySession(connID string, logger *zerolog.Logger) {
	if err := srv.svc.DeleteSignalingSession(connID); err != nil {
		logger.Error().Err(err).Msg("failed to delete signaling session")
		return
	}
	logger.Debug().Msg("signaling session ended")
}

func (srv *Server) handleWSConn(
	ctx context.Context,
	cancel context.CancelFunc,
	conn *websocket.Conn,
	connID string,
	wire model.Wire,
	logger *zerolog.Logger,
) {
	wg := &sync.WaitGroup{}

	wg.Add(2)
	go func() {
		webSocketReceiver(ctx, wg, conn, srv.maxMsgSize, func(msg []byte) {
			srv.svc.HandleEvent(connID, msg)
		}, logger)
		cancel()
	}()
	go func() {
		webSocketSender(ctx, wg, conn, wire.TX, logger)
		cancel()
	}()
	go func() {
		// unblock a receiver waiting in ReadMessage
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	wg.Wait()
	closeConn(conn, logger)
	srv.destroySession(connID, logger)
}

func webSocketSender(
	ctx context.Context,
	wg *sync.WaitGroup,
	conn *websocket.Conn,
	tx <-chan model.Announcement,
	logger *zerolog.Logger,
) {
	pingTicker := time.NewTicker(defaultPingInterval)
	defer func() {
		pingTicker.Stop()
		wg.Done()
	}()
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			if err = writeFrame(conn, websocket.PingMessage, nil, defaultWebSocketWriteDeadline); err == nil {
				logger.Trace().Msg("ping sent")
			}
		case ann, ok := <-tx:
			if !ok {
				return
			}
			b, mErr := json.Marshal(&ann)
			if mErr != nil {
				logger.Error().Err(mErr).Str("type", ann.Type).Str("dst", ann.DST).Msg("cannot encode announcement")
				continue
			}
			err = writeFrame(conn, websocket.TextMessage, b, defaultWebSocketWriteDeadline)
		}
		if err != nil {
			logger.Debug().Err(err).Msg("write failed, stopping sender")
			return
		}
	}
}

// writeFrame sends one whole frame within timeout.
func writeFrame(conn *websocket.Conn, msgType int, data []byte, timeout time.Duration) error {
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(msgType, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func webSocketReceiver(
	ctx context.Context,
	wg *sync.WaitGroup,
	conn *websocket.Conn,
	readLimit int64,
	handle func([]byte),
	logger *zerolog.Logger,
) {
	defer wg.Done()

	conn.SetReadLimit(readLimit)
	readDeadLineFunc := func(deadline time.Duration) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	}
	conn.SetPongHandler(func(string) error {
		logger.Trace().Msg("got pong")
		return readDeadLineFunc(defaultPongWait)
	})
	err := readDeadLineFunc(defaultPongWait)
	if err != nil {
		logger.Error().Err(err).Msg("failed to set websocket read deadline")
		return
	}

RecvLoop:
	for {
		select {
		case <-ctx.Done():
			break RecvLoop
		default:
			msgType, msg, wsErr := conn.ReadMessage()
			if wsErr != nil {
				switch {
				case ctx.Err() != nil:
					logger.Debug().Msg("session canceled")
				case websocket.IsCloseError(wsErr,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway):
					logger.Debug().Err(wsErr).Msg("connection closed")
				default:
					logger.Warn().Err(wsErr).Msg("unexpected error during receive")
				}
				break RecvLoop
			}
			if msgType != websocket.TextMessage {
				logger.Debug().Int("messageType", msgType).Msg("ignoring non-text message")
				continue
			}
			handle(msg)
		}
	}
}

// closeConn says goodbye with a close frame and drops the connection.
func closeConn(conn *websocket.Conn, logger *zerolog.Logger) {
	if err := writeFrame(conn, websocket.CloseMessage, nil, defaultWebSocketCloseWriteDeadline); err != nil {
		logger.Debug().Err(err).Msg("close frame not sent")
	}
	if err := conn.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close websocket connection")
	}
}
