package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

const expenseColumns = `id, trip_id, description, amount, paid_by, split_with, created_by, created_at`

// ExpensesByTrip returns all budget expenses for a trip, oldest first.
func (s *Store) ExpensesByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.BudgetExpense, error) {
	const q = `
		SELECT ` + expenseColumns + `
		FROM budget_expenses
		WHERE trip_id = @trip_id
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, classify("store.ExpensesByTrip", err)
	}
	defer rows.Close()

	var expenses []domain.BudgetExpense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, classify("store.ExpensesByTrip: scan", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.ExpensesByTrip: rows", err)
	}
	return expenses, nil
}

// CreateExpense inserts a budget expense and returns the persisted row.
// Callers must reject empty split lists before reaching this method; the
// table constraint is the backstop.
func (s *Store) CreateExpense(ctx context.Context, e domain.BudgetExpense) (domain.BudgetExpense, error) {
	const q = `
		INSERT INTO budget_expenses (trip_id, description, amount, paid_by, split_with, created_by)
		VALUES (@trip_id, @description, @amount, @paid_by, @split_with, @created_by)
		RETURNING ` + expenseColumns

	args := pgx.NamedArgs{
		"trip_id":     e.TripID,
		"description": e.Description,
		"amount":      e.Amount,
		"paid_by":     e.PaidBy,
		"split_with":  e.SplitWith,
		"created_by":  e.CreatedBy,
	}

	row := s.db.QueryRow(ctx, q, args)
	created, err := scanExpense(row)
	if err != nil {
		return domain.BudgetExpense{}, classify("store.CreateExpense", err)
	}
	return created, nil
}

// UpdateExpense overwrites the mutable fields of an expense.
func (s *Store) UpdateExpense(ctx context.Context, e domain.BudgetExpense) (domain.BudgetExpense, error) {
	const q = `
		UPDATE budget_expenses
		SET description = @description,
		    amount      = @amount,
		    paid_by     = @paid_by,
		    split_with  = @split_with
		WHERE id = @id
		RETURNING ` + expenseColumns

	args := pgx.NamedArgs{
		"id":          e.ID,
		"description": e.Description,
		"amount":      e.Amount,
		"paid_by":     e.PaidBy,
		"split_with":  e.SplitWith,
	}

	row := s.db.QueryRow(ctx, q, args)
	updated, err := scanExpense(row)
	if err != nil {
		return domain.BudgetExpense{}, classify("store.UpdateExpense", err)
	}
	return updated, nil
}

// DeleteExpense removes an expense by primary key.
func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM budget_expenses WHERE id = @id`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return classify("store.DeleteExpense", err)
	}
	if tag.RowsAffected() == 0 {
		return classify("store.DeleteExpense", pgx.ErrNoRows)
	}
	return nil
}

func scanExpense(s scanner) (domain.BudgetExpense, error) {
	var e domain.BudgetExpense
	err := s.Scan(&e.ID, &e.TripID, &e.Description, &e.Amount, &e.PaidBy,
		&e.SplitWith, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return domain.BudgetExpense{}, err
	}
	return e, nil
}
