package httpserver

import (
	"net/http"

	"github.com/iota-pi/flock-sub001/internal/model"
)

type subscriptionResponse struct {
	Success      bool                `json:"success"`
	Subscription *model.Subscription `json:"subscription"`
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subs.Get(r.Context(), r.PathValue("account"), r.PathValue("subscription"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, subscriptionResponse{Success: true, Subscription: sub})
}

func (s *Server) handlePutSubscription(w http.ResponseWriter, r *http.Request) {
	var sub model.Subscription
	if err := decodeBody(r, &sub); err != nil {
		badRequest(w, "bad request body")
		return
	}
	sub.Account = r.PathValue("account")
	sub.ID = r.PathValue("subscription")
	if err := s.subs.Set(r.Context(), &sub); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, successResponse{Success: true})
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.subs.Delete(r.Context(), r.PathValue("account"), r.PathValue("subscription")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, successResponse{Success: true})
}
