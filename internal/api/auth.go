package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/pitchside/pitchside-core/internal/auth"
)

// loginRequest is the JSON body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the JSON response for a successful login.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
}

// handleLogin authenticates a username/password pair and issues a JWT
// access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("authentication failed", "error", err)
		writeInternalError(w, "authentication failed")
		return
	}

	token, expiresAt, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		s.logger.Error("token generation failed", "error", err, "username", user.Username)
		writeInternalError(w, "token generation failed")
		return
	}

	s.logger.Info("user logged in", "username", user.Username, "role", user.Role)

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Role:        string(user.Role),
	})
}

// wsTicketResponse is the JSON response for POST /auth/ws-ticket.
type wsTicketResponse struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleWSTicket issues a short-lived single-use ticket that authorises one
// WebSocket upgrade. Browsers cannot set an Authorization header on a
// WebSocket handshake, so the ticket travels in the query string instead.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	ticket, expiresAt, err := s.tickets.issue(claims.Subject, claims.Role)
	if err != nil {
		s.logger.Error("ticket generation failed", "error", err)
		writeInternalError(w, "ticket generation failed")
		return
	}

	writeJSON(w, http.StatusOK, wsTicketResponse{
		Ticket:    ticket,
		ExpiresAt: expiresAt,
	})
}

const (
	// ticketTTL is how long an issued WebSocket ticket remains valid.
	ticketTTL = 60 * time.Second

	// ticketBytes is the entropy of a ticket value.
	ticketBytes = 32

	// ticketCleanInterval is how often expired tickets are swept.
	ticketCleanInterval = 30 * time.Second
)

// ticketEntry records the identity a ticket was issued to.
type ticketEntry struct {
	username  string
	role      auth.Role
	expiresAt time.Time
}

// ticketStore holds outstanding single-use WebSocket tickets. Each server
// owns its own store so tickets issued by one instance cannot leak into
// another.
type ticketStore struct {
	mu      sync.Mutex
	entries map[string]ticketEntry
}

func newTicketStore() *ticketStore {
	return &ticketStore{entries: make(map[string]ticketEntry)}
}

// issue creates a new ticket bound to the given identity.
func (ts *ticketStore) issue(username string, role auth.Role) (string, time.Time, error) {
	b := make([]byte, ticketBytes)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	ticket := hex.EncodeToString(b)
	expiresAt := time.Now().Add(ticketTTL)

	ts.mu.Lock()
	ts.entries[ticket] = ticketEntry{username: username, role: role, expiresAt: expiresAt}
	ts.mu.Unlock()

	return ticket, expiresAt, nil
}

// redeem validates and consumes a ticket. A ticket is valid exactly once.
func (ts *ticketStore) redeem(ticket string) (ticketEntry, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entry, ok := ts.entries[ticket]
	if !ok {
		return ticketEntry{}, false
	}
	delete(ts.entries, ticket)

	if time.Now().After(entry.expiresAt) {
		return ticketEntry{}, false
	}
	return entry, true
}

// cleanLoop periodically removes expired tickets until ctx is cancelled.
func (ts *ticketStore) cleanLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketCleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			ts.mu.Lock()
			for ticket, entry := range ts.entries {
				if now.After(entry.expiresAt) {
					delete(ts.entries, ticket)
				}
			}
			ts.mu.Unlock()
		}
	}
}
