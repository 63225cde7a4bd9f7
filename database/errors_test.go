package database

import (
	"errors"
	"fmt"
	"testing"

	"hashguess/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "nil passes through",
			in:   nil,
			want: nil,
		},
		{
			name: "no rows becomes not found",
			in:   pgx.ErrNoRows,
			want: models.ErrNotFound,
		},
		{
			name: "wrapped no rows becomes not found",
			in:   fmt.Errorf("query failed: %w", pgx.ErrNoRows),
			want: models.ErrNotFound,
		},
		{
			name: "serialization failure is retryable",
			in:   &pgconn.PgError{Code: "40001"},
			want: models.ErrConcurrencyConflict,
		},
		{
			name: "deadlock is retryable",
			in:   &pgconn.PgError{Code: "40P01"},
			want: models.ErrConcurrencyConflict,
		},
		{
			name: "lock not available becomes lock timeout",
			in:   &pgconn.PgError{Code: "55P03"},
			want: models.ErrLockTimeout,
		},
		{
			name: "open block index violation",
			in:   &pgconn.PgError{Code: "23505", ConstraintName: "blocks_single_open"},
			want: models.ErrPriorBlockUnresolved,
		},
		{
			name: "balance check violation",
			in:   &pgconn.PgError{Code: "23514", ConstraintName: "players_balance_non_negative"},
			want: models.ErrInsufficientFunds,
		},
		{
			name: "bet cap trigger by constraint name",
			in:   &pgconn.PgError{Code: "P0001", ConstraintName: "bets_active_cap"},
			want: models.ErrTooManyActiveBets,
		},
		{
			name: "bet cap trigger by message",
			in:   &pgconn.PgError{Code: "P0001", Message: "active bet cap reached"},
			want: models.ErrTooManyActiveBets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapError_UnrelatedErrorsPassThrough(t *testing.T) {
	plain := errors.New("connection refused")
	assert.Equal(t, plain, MapError(plain))

	// An unrecognized unique violation stays a storage error
	other := &pgconn.PgError{Code: "23505", ConstraintName: "players_username_key"}
	got := MapError(other)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(got, &pgErr))
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, models.IsRetryable(MapError(&pgconn.PgError{Code: "40001"})))
	assert.True(t, models.IsRetryable(MapError(&pgconn.PgError{Code: "55P03"})))
	assert.False(t, models.IsRetryable(MapError(&pgconn.PgError{Code: "23514", ConstraintName: "players_balance_non_negative"})))
	assert.False(t, models.IsRetryable(nil))
}
