package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-billing/internal/domain"
)

type ActorTokenRepository struct {
	db *sql.DB
}

func NewActorTokenRepository(db *sql.DB) *ActorTokenRepository {
	return &ActorTokenRepository{db: db}
}

// FindByPlainToken looks up a token by the sha256 of its plain form. Tokens
// are issued by the identity system; billing only reads them.
func (r *ActorTokenRepository) FindByPlainToken(ctx context.Context, plainToken string) (*domain.ActorToken, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	sum := sha256.Sum256([]byte(plainToken))
	hashStr := fmt.Sprintf("%x", sum)

	query := `
		SELECT id, token_hash, actor_id, role, expires_at
		FROM actor_tokens
		WHERE token_hash = $1
		  AND (expires_at IS NULL OR expires_at > $2)
		LIMIT 1
	`

	var t domain.ActorToken
	err := r.db.QueryRowContext(ctx, query, hashStr, time.Now()).Scan(
		&t.ID,
		&t.TokenHash,
		&t.ActorID,
		&t.Role,
		&t.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.New("token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}

	return &t, nil
}
