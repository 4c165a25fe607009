package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type postgresRepository struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL token repository.
func NewPostgresRepository(db *sql.DB) TokenRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateToken(ctx context.Context, token *Token) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (id, user_id, token)
		VALUES ($1, $2, $3)`,
		token.ID, token.UserID, token.Token)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetToken(ctx context.Context, token string) (*Token, error) {
	t := &Token{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, created_at
		FROM auth_tokens WHERE token = $1`, token).Scan(
		&t.ID, &t.UserID, &t.Token, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresRepository) DeleteToken(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidToken
	}
	return nil
}
