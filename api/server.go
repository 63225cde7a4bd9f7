package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"hashguess/models"
	"hashguess/service"

	log "github.com/sirupsen/logrus"
)

// Server exposes the ledger operations over HTTP. It is a thin shell: all
// validation and transactional behavior lives in the services.
type Server struct {
	accounts   service.AccountService
	blocks     service.BlockService
	bets       service.BetService
	resolution service.ResolutionService
}

// NewServer creates an HTTP server around the ledger services.
func NewServer(accounts service.AccountService, blocks service.BlockService, bets service.BetService, resolution service.ResolutionService) *Server {
	return &Server{
		accounts:   accounts,
		blocks:     blocks,
		bets:       bets,
		resolution: resolution,
	}
}

// Router returns the HTTP handler for the ledger API.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /accounts", s.createAccount)
	mux.HandleFunc("POST /accounts/{id}/credit", s.credit)
	mux.HandleFunc("POST /blocks", s.openBlock)
	mux.HandleFunc("POST /blocks/{id}/reveal", s.revealOutcome)
	mux.HandleFunc("POST /bets", s.placeBet)
	mux.HandleFunc("POST /resolutions", s.resolveClosedBlocks)
	return mux
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "username and email are required")
		return
	}

	player, err := s.accounts.CreateAccount(r.Context(), req.Username, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CreateAccountResponse{
		PlayerID: player.ID,
		Username: player.Username,
		Balance:  player.Balance,
	})
}

func (s *Server) credit(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid player id")
		return
	}

	var req CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "amount_cents must be positive")
		return
	}

	newBalance, err := s.accounts.Credit(r.Context(), playerID, req.AmountCents)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CreditResponse{PlayerID: playerID, NewBalance: newBalance})
}

func (s *Server) openBlock(w http.ResponseWriter, r *http.Request) {
	block, err := s.blocks.OpenBlock(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, OpenBlockResponse{BlockID: block.ID})
}

func (s *Server) revealOutcome(w http.ResponseWriter, r *http.Request) {
	blockID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid block id")
		return
	}

	outcome, err := s.blocks.RevealOutcome(r.Context(), blockID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RevealResponse{BlockID: blockID, Outcome: outcome})
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}

	bet, err := s.bets.PlaceBet(r.Context(), req.PlayerID, req.BlockID, req.Prediction, req.StakeCents)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, PlaceBetResponse{BetID: bet.ID})
}

func (s *Server) resolveClosedBlocks(w http.ResponseWriter, r *http.Request) {
	count, err := s.resolution.ResolveClosedBlocks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResolveResponse{Resolved: count})
}

// writeServiceError maps the ledger's error taxonomy onto HTTP statuses.
// Transient conflicts return 503 with Retry-After so clients retry.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, models.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient_funds", "")
	case errors.Is(err, models.ErrBlockClosed):
		writeError(w, http.StatusConflict, "block_closed", "")
	case errors.Is(err, models.ErrBlockAlreadyResolved):
		writeError(w, http.StatusConflict, "block_already_resolved", "")
	case errors.Is(err, models.ErrPriorBlockUnresolved):
		writeError(w, http.StatusConflict, "prior_block_unresolved", "")
	case errors.Is(err, models.ErrTooManyActiveBets):
		writeError(w, http.StatusConflict, "too_many_active_bets", "")
	case models.IsRetryable(err):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "concurrency_conflict", "retry the request")
	default:
		log.WithError(err).Error("Ledger operation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}
