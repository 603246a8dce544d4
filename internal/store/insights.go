package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

const insightColumns = "id, search_word, category, content, source_url, created_at, updated_at"

// FindInsight returns the insight stored for sourceURL, or model.ErrNotFound.
func (s *SQLStore) FindInsight(ctx context.Context, sourceURL string) (*model.Insight, error) {
	row := s.queryRow(ctx, "SELECT "+insightColumns+" FROM insights WHERE source_url = ?", sourceURL)
	in, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding insight %s: %w", sourceURL, err)
	}
	return in, nil
}

// CreateInsight inserts in and sets its ID. If the source URL is already taken
// the insert is a no-op and model.ErrDuplicate is returned.
func (s *SQLStore) CreateInsight(ctx context.Context, in *model.Insight) error {
	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = in.CreatedAt
	}

	err := s.queryRow(ctx,
		`INSERT INTO insights (search_word, category, content, source_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_url) DO NOTHING
		RETURNING id`,
		in.SearchWord, string(in.Category), in.Content, in.SourceURL, in.CreatedAt.UTC(), in.UpdatedAt.UTC(),
	).Scan(&in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("creating insight %s: %w", in.SourceURL, err)
	}
	return nil
}

// RefreshInsight replaces content and updated_at. Category and source URL are
// left alone.
func (s *SQLStore) RefreshInsight(ctx context.Context, id int64, content string, updatedAt time.Time) error {
	res, err := s.exec(ctx, "UPDATE insights SET content = ?, updated_at = ? WHERE id = ?", content, updatedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("refreshing insight %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("refreshing insight %d: %w", id, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListInsights returns insights newest first.
func (s *SQLStore) ListInsights(ctx context.Context, f model.InsightFilter) ([]model.Insight, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.SearchWord != "" {
		where = append(where, "search_word = ?")
		args = append(args, f.SearchWord)
	}

	q := "SELECT " + insightColumns + " FROM insights"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY updated_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	if f.Offset > 0 {
		if f.Limit <= 0 {
			q += s.noLimit()
		}
		q += " OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}
	defer rows.Close()

	var out []model.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning insight: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func (s *SQLStore) noLimit() string {
	if s.dialect == dialectPostgres {
		return " LIMIT ALL"
	}
	return " LIMIT -1"
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInsight(sc scanner) (*model.Insight, error) {
	var (
		in  model.Insight
		cat string
	)
	if err := sc.Scan(&in.ID, &in.SearchWord, &cat, &in.Content, &in.SourceURL, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, err
	}
	in.Category = model.Category(cat)
	return &in, nil
}
