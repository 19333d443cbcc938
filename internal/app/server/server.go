package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/chess-vn/econgames/internal/game"
	"github.com/chess-vn/econgames/internal/identity"
	"github.com/chess-vn/econgames/internal/usecases"
	"github.com/chess-vn/econgames/pkg/logging"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// LambdaInvoker is the part of the lambda client used to report finished
// matches.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

type server struct {
	address  string
	upgrader websocket.Upgrader

	config   Config
	registry *Registry

	matchRepo    interfaces.IMatchRepository
	matchUsecase interfaces.IMatchUsecase

	bot          game.BotPolicy
	locator      *identity.Locator
	lambdaClient LambdaInvoker
	now          func() time.Time
}

type Option func(*server)

func WithLambdaClient(client LambdaInvoker) Option {
	return func(s *server) { s.lambdaClient = client }
}

func WithBotPolicy(bot game.BotPolicy) Option {
	return func(s *server) { s.bot = bot }
}

func WithLocator(locator *identity.Locator) Option {
	return func(s *server) { s.locator = locator }
}

func NewServer(cfg Config, matchRepo interfaces.IMatchRepository, opts ...Option) *server {
	s := &server{
		address: "0.0.0.0:" + cfg.Port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		config:       cfg,
		matchRepo:    matchRepo,
		matchUsecase: usecases.NewMatchUsecase(matchRepo, cfg.Game.MinCompletedRounds),
		bot:          game.NewBot(nil),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = NewRegistry(s.newMatch)
	return s
}

func (s *server) newMatch(id string, gameType game.GameType, mode game.Mode) *Match {
	return newMatch(id, matchConfigFor(s.config.Game, gameType, mode), matchHooks{
		repo:           s.matchRepo,
		bot:            s.bot,
		broadcast:      s.registry.Broadcast,
		subscribe:      s.registry.Subscribe,
		endGameHandler: s.handleEndGame,
		abortHandler:   s.handleAbort,
		now:            s.now,
	})
}

// Handler returns the router with CORS applied.
func (s *server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/game/{matchId}", s.handleGameSocket).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/matches", s.handleCreateMatch).Methods("POST")
	api.HandleFunc("/matches", s.handleActiveMatches).Methods("GET")
	api.HandleFunc("/matches/{matchId}", s.handleMatchStats).Methods("GET")
	api.HandleFunc("/matches/{matchId}/history", s.handleMatchHistory).Methods("GET")
	api.HandleFunc("/admin/purge", s.handlePurge).Methods("POST")

	return cors.New(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

// Start serves until ctx is cancelled, then shuts the listener down and
// stops every live match.
func (s *server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}
	scheduler, err := s.startPurgeScheduler()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("game server started", zap.String("address", s.address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logging.Info("shutting down game server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if scheduler != nil {
			if err := scheduler.Shutdown(); err != nil {
				logging.Warn("failed to stop purge scheduler", zap.Error(err))
			}
		}
		for _, match := range s.registry.Live() {
			match.shutdown()
			s.registry.Remove(match.Id())
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
