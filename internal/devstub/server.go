// Package devstub provides an in-memory stand-in for the auth collaborator
// and the cloud storage API, for local development and integration tests.
// It serves the same routes the cloudapi client calls, backed by process
// memory instead of real OAuth and real cloud storage.
package devstub

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hivebridge-io/hivebridge/internal/cloud"
)

// Server is the in-memory collaborator stub. The zero value is not usable;
// create one with NewServer.
type Server struct {
	mu            sync.Mutex
	authenticated bool
	token         string
	walletFileID  string
	files         map[string][]byte
	fileNames     map[string]string
	registered    map[string]map[string]bool
}

// NewServer creates a stub in the logged-out state with no stored files.
func NewServer() *Server {
	return &Server{
		files:      make(map[string][]byte),
		fileNames:  make(map[string]string),
		registered: make(map[string]map[string]bool),
	}
}

// Login marks the stub session as authenticated and mints a fresh token.
func (s *Server) Login() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.token = uuid.NewString()
}

// Logout clears the stub session.
func (s *Server) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.token = ""
}

// RegisterKey marks a public key as registered for an account, so key
// lookups against the stub succeed.
func (s *Server) RegisterKey(account, publicKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.registered[account]
	if keys == nil {
		keys = make(map[string]bool)
		s.registered[account] = keys
	}
	keys[publicKey] = true
}

// FileContent returns the stored bytes for a file ID, for test assertions.
func (s *Server) FileContent(fileID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[fileID]
	return content, ok
}

// Router builds the HTTP routes. Auth routes live under /api/auth and
// storage routes under /drive/v3, matching the client's two base URLs.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/token", s.handleToken).Methods(http.MethodGet)
	auth.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	auth.HandleFunc("/wallet-file", s.handleWalletFile).Methods(http.MethodGet)
	auth.HandleFunc("/verify", s.handleVerify).Methods(http.MethodGet)
	auth.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	auth.HandleFunc("/accounts/{account}/keys/{key}", s.handleKeyLookup).Methods(http.MethodGet)

	drive := r.PathPrefix("/drive/v3").Subrouter()
	drive.HandleFunc("/files", s.handleCreateFile).Methods(http.MethodPost)
	drive.HandleFunc("/files/{id}", s.handleGetFile).Methods(http.MethodGet)
	drive.HandleFunc("/files/{id}", s.handleUpdateFile).Methods(http.MethodPatch)

	// Control routes let a browser or curl flip the stub session state.
	ctl := r.PathPrefix("/control").Subrouter()
	ctl.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		s.Login()
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
	}).Methods(http.MethodPost)
	ctl.HandleFunc("/logout", func(w http.ResponseWriter, _ *http.Request) {
		s.Logout()
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
	}).Methods(http.MethodPost)

	return r
}

func (s *Server) handleToken(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	authed := s.authenticated
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authed})
}

func (s *Server) handleWalletFile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	fileID := s.walletFileID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"exists": fileID != "",
		"fileId": fileID,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	authed := s.authenticated
	s.mu.Unlock()

	if !authed {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.Logout()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleKeyLookup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	ok := s.registered[vars["account"]][vars["key"]]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"registered": ok})
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	if !s.requireToken(w, r) {
		return
	}

	content, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad body"})
		return
	}

	id := uuid.NewString()
	name := r.URL.Query().Get("name")

	s.mu.Lock()
	s.files[id] = content
	s.fileNames[id] = name
	if name == cloud.WalletFileName {
		s.walletFileID = id
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	if !s.requireToken(w, r) {
		return
	}

	id := mux.Vars(r)["id"]

	s.mu.Lock()
	content, ok := s.files[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	if !s.requireToken(w, r) {
		return
	}

	id := mux.Vars(r)["id"]

	content, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad body"})
		return
	}

	s.mu.Lock()
	_, ok := s.files[id]
	if ok {
		s.files[id] = content
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// requireToken enforces the bearer token on storage routes the way the
// real storage API does: missing or stale tokens get 401.
func (s *Server) requireToken(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	token := s.token
	authed := s.authenticated
	s.mu.Unlock()

	if !authed || r.Header.Get("Authorization") != "Bearer "+token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
