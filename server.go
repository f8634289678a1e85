package broadsheet

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/jhchabran/broadsheet/authentication"

	_ "github.com/lib/pq"
)

// ServerConfig holds the runtime settings of a Server.
type ServerConfig struct {
	Addr string
	// TokenTTL is the default lifetime of issued tokens, used when a token
	// request doesn't specify expires_in.
	TokenTTL time.Duration
}

type Server struct {
	config          *ServerConfig
	logger          zerolog.Logger
	store           Store
	tokens          *authentication.TokenService
	router          *httprouter.Router
	done            chan struct{}
	idleConnsClosed chan struct{}
}

func NewServer(config *ServerConfig, logger zerolog.Logger, store Store, tokens *authentication.TokenService) *Server {
	return &Server{
		config:          config,
		logger:          logger,
		store:           store,
		tokens:          tokens,
		router:          httprouter.New(),
		done:            make(chan struct{}),
		idleConnsClosed: make(chan struct{}),
	}
}

func (s *Server) Prepare() error {
	// database
	err := s.store.Connect()
	if err != nil {
		return err
	}

	requireUser := s.requireUserMiddleware()
	loadUser := s.loadUserMiddleware()

	// unauthenticated routes
	s.router.POST("/tokens", s.HandleCreateToken())
	s.router.POST("/users", s.HandleCreateUser())
	s.router.GET("/users", s.HandleListUsers())
	s.router.GET("/u/:username", s.HandleShowUser())
	s.router.GET("/subreddits", s.HandleListSubreddits())

	// public reads; an optional token makes myvote meaningful
	withMiddlewares(func(m middleware) {
		s.router.GET("/r/:name", m(s.HandleShowSubreddit()))
		s.router.GET("/r/:name/posts/:title", m(s.HandleShowPost()))
		s.router.GET("/comments/:id", m(s.HandleShowComment()))
	}, loadUser)

	// authenticated mutations
	withMiddlewares(func(m middleware) {
		s.router.PUT("/u/:username", m(s.HandleUpdateUser()))
		s.router.POST("/subreddits", m(s.HandleCreateSubreddit()))
		s.router.POST("/r/:name", m(s.HandleCreatePost()))
		s.router.POST("/r/:name/subscribe", m(s.HandleSubscribe()))
		s.router.DELETE("/r/:name/subscribe", m(s.HandleUnsubscribe()))
		s.router.POST("/r/:name/posts/:title", m(s.HandleCreateComment()))
		s.router.POST("/entry/:id/up", m(s.HandleCastVote(true)))
		s.router.POST("/entry/:id/down", m(s.HandleCastVote(false)))
		s.router.DELETE("/entry/:id/up", m(s.HandleRetractVote()))
		s.router.DELETE("/entry/:id/down", m(s.HandleRetractVote()))
	}, requireUser)

	return nil
}

func (s *Server) Start() error {
	httpServer := http.Server{Addr: s.config.Addr, Handler: s}

	go func() {
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			// should probably bubble this up
			s.logger.Fatal().Err(err).Msg("Cannot listen and serve")
		}
	}()

	<-s.done

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	close(s.idleConnsClosed)

	return nil
}

func (s *Server) Stop() {
	close(s.done)
	<-s.idleConnsClosed
}

func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(res, req)
}
