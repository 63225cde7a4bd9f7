package repository

import (
	"context"
	"fmt"

	"hashguess/database"
	"hashguess/models"
)

// PaymentRepository implements the service.PaymentRepository interface
type PaymentRepository struct {
	q queryable
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

// newPaymentRepositoryWithTx creates a new payment repository with a transaction
func newPaymentRepositoryWithTx(tx queryable) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Record creates a new payment audit entry
func (r *PaymentRepository) Record(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (player_id, amount)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, payment.PlayerID, payment.Amount).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record payment for player %d: %w", payment.PlayerID, database.MapError(err))
	}
	return nil
}

// GetByPlayer returns payments for a player, most recent first.
func (r *PaymentRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*models.Payment, error) {
	query := `
		SELECT id, player_id, amount, created_at
		FROM payments
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for player %d: %w", playerID, err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.PlayerID, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
