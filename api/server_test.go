package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hashguess/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) CreateAccount(ctx context.Context, username, email string) (*models.Player, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *mockAccountService) Credit(ctx context.Context, playerID int64, amount int64) (int64, error) {
	args := m.Called(ctx, playerID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccountService) GetPlayer(ctx context.Context, playerID int64) (*models.Player, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

type mockBlockService struct {
	mock.Mock
}

func (m *mockBlockService) OpenBlock(ctx context.Context) (*models.Block, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Block), args.Error(1)
}

func (m *mockBlockService) RevealOutcome(ctx context.Context, blockID int64) (string, error) {
	args := m.Called(ctx, blockID)
	return args.String(0), args.Error(1)
}

type mockBetService struct {
	mock.Mock
}

func (m *mockBetService) PlaceBet(ctx context.Context, playerID, blockID int64, prediction string, stake int64) (*models.Bet, error) {
	args := m.Called(ctx, playerID, blockID, prediction, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

type mockResolutionService struct {
	mock.Mock
}

func (m *mockResolutionService) ResolveClosedBlocks(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type serverMocks struct {
	accounts   *mockAccountService
	blocks     *mockBlockService
	bets       *mockBetService
	resolution *mockResolutionService
}

func newTestServer() (*Server, *serverMocks) {
	m := &serverMocks{
		accounts:   new(mockAccountService),
		blocks:     new(mockBlockService),
		bets:       new(mockBetService),
		resolution: new(mockResolutionService),
	}
	return NewServer(m.accounts, m.blocks, m.bets, m.resolution), m
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_CreateAccount(t *testing.T) {
	server, m := newTestServer()

	m.accounts.On("CreateAccount", mock.Anything, "alice", "alice@example.com").
		Return(&models.Player{ID: 1, Username: "alice", Balance: 0}, nil)

	rec := postJSON(t, server.Router(), "/accounts", CreateAccountRequest{
		Username: "alice",
		Email:    "alice@example.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CreateAccountResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.PlayerID)
	assert.Equal(t, "alice", resp.Username)

	m.accounts.AssertExpectations(t)
}

func TestServer_CreateAccount_MissingFields(t *testing.T) {
	server, m := newTestServer()

	rec := postJSON(t, server.Router(), "/accounts", CreateAccountRequest{Username: "alice"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.accounts.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestServer_Credit(t *testing.T) {
	server, m := newTestServer()

	m.accounts.On("Credit", mock.Anything, int64(7), int64(10000)).Return(int64(12500), nil)

	rec := postJSON(t, server.Router(), "/accounts/7/credit", CreditRequest{AmountCents: 10000})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CreditResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(12500), resp.NewBalance)
}

func TestServer_Credit_UnknownPlayer(t *testing.T) {
	server, m := newTestServer()

	m.accounts.On("Credit", mock.Anything, int64(99), int64(100)).Return(int64(0), models.ErrNotFound)

	rec := postJSON(t, server.Router(), "/accounts/99/credit", CreditRequest{AmountCents: 100})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_PlaceBet_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"insufficient funds", models.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
		{"block closed", models.ErrBlockClosed, http.StatusConflict, "block_closed"},
		{"too many active bets", models.ErrTooManyActiveBets, http.StatusConflict, "too_many_active_bets"},
		{"unknown player or block", models.ErrNotFound, http.StatusNotFound, "not_found"},
		{"serialization conflict", models.ErrConcurrencyConflict, http.StatusServiceUnavailable, "concurrency_conflict"},
		{"lock timeout", models.ErrLockTimeout, http.StatusServiceUnavailable, "concurrency_conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, m := newTestServer()
			m.bets.On("PlaceBet", mock.Anything, int64(1), int64(2), "c", int64(500)).Return(nil, tt.err)

			rec := postJSON(t, server.Router(), "/bets", PlaceBetRequest{
				PlayerID:   1,
				BlockID:    2,
				Prediction: "c",
				StakeCents: 500,
			})

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantKind, resp.Error)

			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestServer_PlaceBet_Created(t *testing.T) {
	server, m := newTestServer()

	m.bets.On("PlaceBet", mock.Anything, int64(1), int64(2), "c", int64(500)).
		Return(&models.Bet{ID: 11, PlayerID: 1, BlockID: 2, Prediction: "c", Stake: 500}, nil)

	rec := postJSON(t, server.Router(), "/bets", PlaceBetRequest{
		PlayerID:   1,
		BlockID:    2,
		Prediction: "c",
		StakeCents: 500,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp PlaceBetResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(11), resp.BetID)
}

func TestServer_BlockLifecycle(t *testing.T) {
	server, m := newTestServer()

	m.blocks.On("OpenBlock", mock.Anything).Return(&models.Block{ID: 3}, nil)
	m.blocks.On("RevealOutcome", mock.Anything, int64(3)).Return("f", nil)
	m.resolution.On("ResolveClosedBlocks", mock.Anything).Return(int64(2), nil)

	rec := postJSON(t, server.Router(), "/blocks", struct{}{})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, server.Router(), "/blocks/3/reveal", struct{}{})
	assert.Equal(t, http.StatusOK, rec.Code)
	var reveal RevealResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reveal))
	assert.Equal(t, "f", reveal.Outcome)

	rec = postJSON(t, server.Router(), "/resolutions", struct{}{})
	assert.Equal(t, http.StatusOK, rec.Code)
	var resolved ResolveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resolved))
	assert.Equal(t, int64(2), resolved.Resolved)
}

func TestServer_OpenBlock_PriorUnresolved(t *testing.T) {
	server, m := newTestServer()

	m.blocks.On("OpenBlock", mock.Anything).Return(nil, models.ErrPriorBlockUnresolved)

	rec := postJSON(t, server.Router(), "/blocks", struct{}{})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "prior_block_unresolved", resp.Error)
}
