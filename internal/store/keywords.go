package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

// ActiveKeywords returns the keywords with is_active set, oldest first.
func (s *SQLStore) ActiveKeywords(ctx context.Context) ([]model.SearchKeyword, error) {
	return s.listKeywords(ctx, " WHERE is_active = ?", true)
}

// ListKeywords returns every keyword, oldest first.
func (s *SQLStore) ListKeywords(ctx context.Context) ([]model.SearchKeyword, error) {
	return s.listKeywords(ctx, "")
}

func (s *SQLStore) listKeywords(ctx context.Context, where string, args ...any) ([]model.SearchKeyword, error) {
	rows, err := s.query(ctx,
		"SELECT id, keyword, is_active, last_searched_at, created_at FROM search_keywords"+where+" ORDER BY id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("listing keywords: %w", err)
	}
	defer rows.Close()

	var out []model.SearchKeyword
	for rows.Next() {
		var (
			k    model.SearchKeyword
			last sql.NullTime
		)
		if err := rows.Scan(&k.ID, &k.Keyword, &k.IsActive, &last, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		if last.Valid {
			t := last.Time
			k.LastSearchedAt = &t
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// AddKeyword inserts an active keyword. Adding an existing keyword is a no-op.
func (s *SQLStore) AddKeyword(ctx context.Context, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return fmt.Errorf("keyword must not be empty")
	}
	_, err := s.exec(ctx,
		"INSERT INTO search_keywords (keyword, is_active, created_at) VALUES (?, ?, ?) ON CONFLICT (keyword) DO NOTHING",
		keyword, true, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("adding keyword %q: %w", keyword, err)
	}
	return nil
}

// SetKeywordActive toggles is_active. Returns model.ErrNotFound for an unknown keyword.
func (s *SQLStore) SetKeywordActive(ctx context.Context, keyword string, active bool) error {
	return s.updateKeyword(ctx, "is_active", keyword, active)
}

// TouchKeyword records the time of the last successful collect run.
func (s *SQLStore) TouchKeyword(ctx context.Context, keyword string, at time.Time) error {
	return s.updateKeyword(ctx, "last_searched_at", keyword, at.UTC())
}

func (s *SQLStore) updateKeyword(ctx context.Context, column, keyword string, value any) error {
	res, err := s.exec(ctx, "UPDATE search_keywords SET "+column+" = ? WHERE keyword = ?", value, keyword)
	if err != nil {
		return fmt.Errorf("updating keyword %q: %w", keyword, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating keyword %q: %w", keyword, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
