package api

import (
	"net/http"
	"time"

	"tracker/src/api/handlers"
	"tracker/src/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	cfg     *config.Config
}

func NewServer(cfg *config.Config) (*Server, error) {
	handler, err := handlers.NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
		cfg:     cfg,
	}
	server.InitRoutes()
	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Get("/alive", handlers.Healthcheck)

	// Public identity endpoints
	s.Router.Post("/api/signup", s.Handler.Signup)
	s.Router.Post("/api/login", s.Handler.Login)
	s.Router.Post("/api/token/refresh", s.Handler.RefreshToken)
	s.Router.Post("/api/reset-password", s.Handler.ResetPassword)

	// Everything touching the ledger requires a verified token
	s.Router.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.Handler.TokenAuth))
		r.Use(jwtauth.Authenticator)

		r.Get("/api/user", s.Handler.GetUserData)
		r.Put("/api/user", s.Handler.UpdateUserData)

		r.Get("/api/funds", s.Handler.GetFunds)
		r.Post("/api/funds", s.Handler.AddFunds)
		r.Put("/api/funds", s.Handler.SetFunds)

		r.Get("/api/holdings", s.Handler.ListHoldings)

		r.Post("/api/transactions", s.Handler.CreateTransaction)
		r.Get("/api/transactions", s.Handler.ListTransactions)
	})
}

func NewHTTPServer(server *Server) *http.Server {
	httpServer := &http.Server{
		Addr:         ":" + server.cfg.Service.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Handler:      server,
	}
	return httpServer
}
