// Package httpserver exposes the vault REST API handlers.
package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/iota-pi/flock-sub001/internal/service"
)

// Server wires services into HTTP handlers. Dependencies are injected at
// construction; handlers never reach for ambient state.
type Server struct {
	mux   *http.ServeMux
	log   *zap.Logger
	auth  service.AuthService
	items service.ItemService
	subs  service.SubscriptionService
}

// New constructs the server with injected services and registers routes.
func New(auth service.AuthService, items service.ItemService, subs service.SubscriptionService, log *zap.Logger) *Server {
	s := &Server{
		mux:   http.NewServeMux(),
		log:   log,
		auth:  auth,
		items: items,
		subs:  subs,
	}
	s.routes()
	return s
}

// Handler returns the full middleware chain around the route table.
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.logging(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /account", s.handleCreateAccount)
	s.mux.HandleFunc("GET /{account}/salt", s.handleGetSalt)
	s.mux.HandleFunc("POST /{account}/login", s.handleLogin)

	s.mux.HandleFunc("GET /{account}", s.authed(s.handleGetMetadata))
	s.mux.HandleFunc("PATCH /{account}", s.authed(s.handleSetMetadata))

	s.mux.HandleFunc("GET /{account}/items", s.authed(s.handleFetchItems))
	s.mux.HandleFunc("PUT /{account}/items", s.authed(s.handlePutItems))
	s.mux.HandleFunc("DELETE /{account}/items", s.authed(s.handleDeleteItems))
	s.mux.HandleFunc("GET /{account}/items/{item}", s.authed(s.handleGetItem))
	s.mux.HandleFunc("PUT /{account}/items/{item}", s.authed(s.handlePutItem))
	s.mux.HandleFunc("DELETE /{account}/items/{item}", s.authed(s.handleDeleteItem))

	s.mux.HandleFunc("GET /{account}/subscriptions/{subscription}", s.authed(s.handleGetSubscription))
	s.mux.HandleFunc("PUT /{account}/subscriptions/{subscription}", s.authed(s.handlePutSubscription))
	s.mux.HandleFunc("DELETE /{account}/subscriptions/{subscription}", s.authed(s.handleDeleteSubscription))
}
