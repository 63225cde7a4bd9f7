package database

import (
	"errors"

	"hashguess/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from the migrations. Violations of these map onto
// business-rule errors rather than raw storage errors.
const (
	constraintBalanceNonNegative = "players_balance_non_negative"
	constraintStakePositive      = "bets_stake_positive"
	indexOneOpenBlock            = "blocks_single_open"
	triggerActiveBetCap          = "bets_active_cap"
)

// SQLSTATE codes of interest.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeRaiseException       = "P0001"
)

// MapError translates low-level Postgres failures into the ledger's error
// taxonomy. Errors that match nothing are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return models.ErrConcurrencyConflict
	case codeLockNotAvailable:
		return models.ErrLockTimeout
	case codeUniqueViolation:
		if pgErr.ConstraintName == indexOneOpenBlock {
			return models.ErrPriorBlockUnresolved
		}
	case codeCheckViolation:
		if pgErr.ConstraintName == constraintBalanceNonNegative {
			return models.ErrInsufficientFunds
		}
	case codeRaiseException:
		// Raised by the active-bet-cap constraint trigger.
		if pgErr.ConstraintName == triggerActiveBetCap || pgErr.Message == "active bet cap reached" {
			return models.ErrTooManyActiveBets
		}
	}

	return err
}
