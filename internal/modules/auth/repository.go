package auth

import "context"

// TokenRepository defines storage for issued tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token *Token) error

	// GetToken looks up an issued token by its string; unknown tokens
	// return ErrInvalidToken.
	GetToken(ctx context.Context, token string) (*Token, error)

	// DeleteToken revokes a token; deleting an unknown token returns
	// ErrInvalidToken.
	DeleteToken(ctx context.Context, token string) error
}
