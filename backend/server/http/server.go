package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/adwski/signal-relay/backend/model"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	defaultShutdownDeadline  = 10 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
)

var (
	ErrUnexpected = errors.New("unexpected server error")
)

type RoomStats interface {
	Rooms() []model.RoomInfo
}

type Server struct {
	logger     zerolog.Logger
	stats      RoomStats
	iceServers []webrtc.ICEServer
	startedAt  time.Time
	now        func() time.Time
	*http.Server
}

type Config struct {
	Logger         *zerolog.Logger
	RoomStats      RoomStats
	ICEServers     []webrtc.ICEServer
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	ListenAddr     string
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		logger:     cfg.Logger.With().Str("component", "api-server").Logger(),
		stats:      cfg.RoomStats,
		iceServers: cfg.ICEServers,
		now:        time.Now,
	}
	srv.startedAt = srv.now()

	r := http.NewServeMux()
	r.HandleFunc("GET /stats", srv.getStats)
	r.HandleFunc("GET /health", srv.getHealth)
	r.HandleFunc("GET /ice-servers", srv.getICEServers)
	if cfg.Gatherer != nil {
		r.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:         86400,
	})

	srv.Server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}
	return srv
}

type (
	userStats struct {
		DisplayName  string    `json:"displayName"`
		ConnectionID string    `json:"connectionId"`
		VideoEnabled bool      `json:"videoEnabled"`
		AudioEnabled bool      `json:"audioEnabled"`
		JoinedAt     time.Time `json:"joinedAt"`
	}

	roomStats struct {
		RoomID    string      `json:"roomId"`
		UserCount int         `json:"userCount"`
		Users     []userStats `json:"users"`
	}

	statsResponse struct {
		TotalRooms int         `json:"totalRooms"`
		TotalUsers int         `json:"totalUsers"`
		Rooms      []roomStats `json:"rooms"`
	}

	healthResponse struct {
		Status        string    `json:"status"`
		Timestamp     time.Time `json:"timestamp"`
		UptimeSeconds float64   `json:"uptimeSeconds"`
	}

	iceServer struct {
		URLs       []string `json:"urls"`
		Username   string   `json:"username,omitempty"`
		Credential string   `json:"credential,omitempty"`
	}

	iceServersResponse struct {
		ICEServers []iceServer `json:"iceServers"`
	}
)

func (srv *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	rooms := lo.Map(srv.stats.Rooms(), func(room model.RoomInfo, _ int) roomStats {
		return roomStats{
			RoomID:    room.ID,
			UserCount: len(room.Participants),
			Users: lo.Map(room.Participants, func(p model.Participant, _ int) userStats {
				return userStats{
					DisplayName:  p.DisplayName,
					ConnectionID: p.ConnectionID,
					VideoEnabled: p.VideoEnabled,
					AudioEnabled: p.AudioEnabled,
					JoinedAt:     p.JoinedAt,
				}
			}),
		}
	})
	resp := statsResponse{
		TotalRooms: len(rooms),
		TotalUsers: lo.SumBy(rooms, func(r roomStats) int { return r.UserCount }),
		Rooms:      rooms,
	}
	srv.writeJSON(w, http.StatusOK, &resp)
}

func (srv *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	now := srv.now()
	srv.writeJSON(w, http.StatusOK, &healthResponse{
		Status:        "ok",
		Timestamp:     now.UTC(),
		UptimeSeconds: now.Sub(srv.startedAt).Seconds(),
	})
}

func (srv *Server) getICEServers(w http.ResponseWriter, _ *http.Request) {
	resp := iceServersResponse{
		ICEServers: lo.Map(srv.iceServers, func(s webrtc.ICEServer, _ int) iceServer {
			cred, _ := s.Credential.(string)
			return iceServer{
				URLs:       s.URLs,
				Username:   s.Username,
				Credential: cred,
			}
		}),
	}
	srv.writeJSON(w, http.StatusOK, &resp)
}

func (srv *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		srv.logger.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(code)
	if _, err = w.Write(b); err != nil {
		srv.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (srv *Server) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		srv.logger.Debug().Msg("server stopped")
		wg.Done()
	}()

	hErr := make(chan error)
	go func() {
		hErr <- srv.ListenAndServe()
	}()

	srv.logger.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-hErr:
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
}
