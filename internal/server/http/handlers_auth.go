package httpserver

import (
	"net"
	"net/http"
)

type createAccountRequest struct {
	Salt      string `json:"salt"`
	AuthToken string `json:"authToken"`
}

type createAccountResponse struct {
	Account string `json:"account"`
}

type saltResponse struct {
	Success bool   `json:"success"`
	Salt    string `json:"salt"`
}

type loginRequest struct {
	AuthToken string `json:"authToken"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Session string `json:"session"`
}

type metadataBlob struct {
	Cipher string `json:"cipher"`
	IV     string `json:"iv"`
}

type metadataRequest struct {
	Metadata metadataBlob `json:"metadata"`
}

type metadataResponse struct {
	Success  bool         `json:"success"`
	Metadata metadataBlob `json:"metadata"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleCreateAccount allocates a new account from a salt and auth token.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "bad request body")
		return
	}
	if req.Salt == "" || req.AuthToken == "" {
		badRequest(w, "salt and authToken are required")
		return
	}
	id, err := s.auth.CreateAccount(r.Context(), req.Salt, req.AuthToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, createAccountResponse{Account: id})
}

// handleGetSalt serves the per-account KDF salt. Unauthenticated: the salt is
// needed before a key (and therefore a session) can exist, and it is not
// secret.
func (s *Server) handleGetSalt(w http.ResponseWriter, r *http.Request) {
	salt, err := s.auth.GetSalt(r.Context(), r.PathValue("account"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, saltResponse{Success: true, Salt: salt})
}

// handleLogin verifies the auth token and rotates the session secret.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "bad request body")
		return
	}
	session, err := s.auth.LoginWithIP(r.Context(), r.PathValue("account"), req.AuthToken, remoteIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, loginResponse{Success: true, Session: session})
}

// handleGetMetadata serves the encrypted account settings blob.
func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	cipher, iv, err := s.auth.GetMetadata(r.Context(), r.PathValue("account"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, metadataResponse{Success: true, Metadata: metadataBlob{Cipher: cipher, IV: iv}})
}

// handleSetMetadata replaces the encrypted account settings blob.
func (s *Server) handleSetMetadata(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "bad request body")
		return
	}
	if err := s.auth.SetMetadata(r.Context(), r.PathValue("account"), req.Metadata.Cipher, req.Metadata.IV); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, successResponse{Success: true})
}
