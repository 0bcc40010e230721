package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
)

const expenseColumns = `id, description, amount, category, expense_date, created_by::text AS created_by, created_at`

type ExpenseService struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

func NewExpenseService(db *sqlx.DB, log logrus.FieldLogger) *ExpenseService {
	return &ExpenseService{db: db, log: log}
}

type ExpenseInput struct {
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	Category    string     `json:"category"`
	ExpenseDate *time.Time `json:"expense_date"`
	CreatedBy   string     `json:"-"`
}

func (in *ExpenseInput) normalize(now time.Time) error {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Description == "" {
		return newValidationError("description is required")
	}
	if in.Amount <= 0 {
		return newValidationError("amount must be positive")
	}
	in.Amount = roundMoney(in.Amount)
	if in.Category == "" {
		in.Category = "other"
	}
	if in.ExpenseDate == nil {
		day := truncateDay(now)
		in.ExpenseDate = &day
	}
	return nil
}

func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (*model.Expense, error) {
	if err := in.normalize(time.Now()); err != nil {
		return nil, err
	}

	var e model.Expense
	err := s.db.GetContext(ctx, &e, `
		INSERT INTO expenses (description, amount, category, expense_date, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+expenseColumns,
		in.Description, in.Amount, in.Category, *in.ExpenseDate, nullIfEmpty(in.CreatedBy))
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	s.log.WithFields(logrus.Fields{"expense_id": e.ID, "amount": e.Amount, "category": e.Category}).Info("expense recorded")
	return &e, nil
}

func (s *ExpenseService) Update(ctx context.Context, id string, in ExpenseInput) (*model.Expense, error) {
	if err := in.normalize(time.Now()); err != nil {
		return nil, err
	}

	var e model.Expense
	err := s.db.GetContext(ctx, &e, `
		UPDATE expenses SET description = $1, amount = $2, category = $3, expense_date = $4
		WHERE id = $5
		RETURNING `+expenseColumns,
		in.Description, in.Amount, in.Category, *in.ExpenseDate, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update expense: %w", err)
	}
	return &e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectRow(res)
}

type ExpenseFilter struct {
	From     *time.Time
	To       *time.Time
	Category string
}

// List returns expenses with from inclusive and to exclusive, newest first.
func (s *ExpenseService) List(ctx context.Context, f ExpenseFilter) ([]model.Expense, error) {
	var (
		conds []string
		args  []any
	)
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, "expense_date >= $"+strconv.Itoa(len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, "expense_date < $"+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, strings.ToLower(f.Category))
		conds = append(conds, "category = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY expense_date DESC, created_at DESC`

	expenses := []model.Expense{}
	if err := s.db.SelectContext(ctx, &expenses, query, args...); err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return expenses, nil
}

// TotalsByCategory sums amounts per category.
func TotalsByCategory(expenses []model.Expense) map[string]float64 {
	out := make(map[string]float64)
	for _, e := range expenses {
		out[e.Category] = roundMoney(out[e.Category] + e.Amount)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
