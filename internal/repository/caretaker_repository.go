package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Maverics-Seneca/auth-service/internal/models"
)

// CaretakerRepository reads caretaker credentials.
type CaretakerRepository struct {
	db *sqlx.DB
}

// NewCaretakerRepository constructs the repository.
func NewCaretakerRepository(db *sqlx.DB) *CaretakerRepository {
	return &CaretakerRepository{db: db}
}

// FindByEmail returns the caretaker registered under email.
func (r *CaretakerRepository) FindByEmail(ctx context.Context, email string) (*models.Caretaker, error) {
	const query = `SELECT id, email, password_hash, name, patient_id, created_at FROM caretakers WHERE email = $1 LIMIT 1`
	var c models.Caretaker
	if err := r.db.GetContext(ctx, &c, query, strings.ToLower(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find caretaker by email: %w", err)
	}
	return &c, nil
}
