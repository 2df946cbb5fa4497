package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/thandzin/ordering/internal/domain"
)

const opTimeout = 5 * time.Second

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
// Документ корзины хранится одной строкой на личность, позиции лежат
// в JSONB.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

var _ domain.CartRepository = (*cartRepository)(nil)

func (r *cartRepository) Load(ctx context.Context, identity string) (domain.CartDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		rawLines   []byte
		totalMinor int64
		updatedAt  time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT lines, total_minor, updated_at
		FROM carts
		WHERE identity = $1
	`, identity).Scan(&rawLines, &totalMinor, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CartDocument{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.CartDocument{}, fmt.Errorf("select cart: %w", err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(rawLines, &lines); err != nil {
		return domain.CartDocument{}, fmt.Errorf("decode cart lines: %w", err)
	}

	return domain.CartDocument{
		Lines:      lines,
		TotalMinor: totalMinor,
		UpdatedAt:  updatedAt,
	}, nil
}

func (r *cartRepository) Save(ctx context.Context, identity string, doc domain.CartDocument) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rawLines, err := json.Marshal(doc.Lines)
	if err != nil {
		return fmt.Errorf("encode cart lines: %w", err)
	}

	// Апсерт целого документа, последняя запись побеждает.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts (identity, lines, total_minor, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity) DO UPDATE SET
			lines = EXCLUDED.lines,
			total_minor = EXCLUDED.total_minor,
			updated_at = EXCLUDED.updated_at
	`, identity, rawLines, doc.TotalMinor, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}
	return nil
}
