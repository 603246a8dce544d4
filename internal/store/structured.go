package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

// List columns are stored as JSON arrays in TEXT so both dialects share one schema.

// UpsertVisaInfo inserts or replaces the row keyed by VisaType.
func (s *SQLStore) UpsertVisaInfo(ctx context.Context, v model.VisaInfo) error {
	_, err := s.exec(ctx,
		`INSERT INTO visa_info (visa_type, requirements, process, duration, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (visa_type) DO UPDATE SET
			requirements = excluded.requirements,
			process = excluded.process,
			duration = excluded.duration,
			updated_at = excluded.updated_at`,
		v.VisaType, encodeList(v.Requirements), encodeList(v.Process), v.Duration, stamp(v.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting visa info %q: %w", v.VisaType, err)
	}
	return nil
}

// UpsertCultureInfo inserts or replaces the row keyed by CultureType.
func (s *SQLStore) UpsertCultureInfo(ctx context.Context, c model.CultureInfo) error {
	_, err := s.exec(ctx,
		`INSERT INTO culture_info (culture_type, title, content, tags, source_urls, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (culture_type) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			tags = excluded.tags,
			source_urls = excluded.source_urls,
			updated_at = excluded.updated_at`,
		c.CultureType, c.Title, c.Content, encodeList(c.Tags), encodeList(c.SourceURLs), stamp(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting culture info %q: %w", c.CultureType, err)
	}
	return nil
}

// UpsertIndustryInfo inserts or replaces the row keyed by IndustryType.
func (s *SQLStore) UpsertIndustryInfo(ctx context.Context, i model.IndustryInfo) error {
	_, err := s.exec(ctx,
		`INSERT INTO industry_info (industry_type, description, trends, opportunities, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (industry_type) DO UPDATE SET
			description = excluded.description,
			trends = excluded.trends,
			opportunities = excluded.opportunities,
			updated_at = excluded.updated_at`,
		i.IndustryType, i.Description, encodeList(i.Trends), encodeList(i.Opportunities), stamp(i.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting industry info %q: %w", i.IndustryType, err)
	}
	return nil
}

func (s *SQLStore) ListVisaInfo(ctx context.Context) ([]model.VisaInfo, error) {
	rows, err := s.query(ctx, "SELECT visa_type, requirements, process, duration, updated_at FROM visa_info ORDER BY visa_type")
	if err != nil {
		return nil, fmt.Errorf("listing visa info: %w", err)
	}
	defer rows.Close()

	var out []model.VisaInfo
	for rows.Next() {
		var (
			v             model.VisaInfo
			reqs, process string
		)
		if err := rows.Scan(&v.VisaType, &reqs, &process, &v.Duration, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning visa info: %w", err)
		}
		v.Requirements = decodeList(reqs)
		v.Process = decodeList(process)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListCultureInfo(ctx context.Context) ([]model.CultureInfo, error) {
	rows, err := s.query(ctx, "SELECT culture_type, title, content, tags, source_urls, updated_at FROM culture_info ORDER BY culture_type")
	if err != nil {
		return nil, fmt.Errorf("listing culture info: %w", err)
	}
	defer rows.Close()

	var out []model.CultureInfo
	for rows.Next() {
		var (
			c          model.CultureInfo
			tags, urls string
		)
		if err := rows.Scan(&c.CultureType, &c.Title, &c.Content, &tags, &urls, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning culture info: %w", err)
		}
		c.Tags = decodeList(tags)
		c.SourceURLs = decodeList(urls)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListIndustryInfo(ctx context.Context) ([]model.IndustryInfo, error) {
	rows, err := s.query(ctx, "SELECT industry_type, description, trends, opportunities, updated_at FROM industry_info ORDER BY industry_type")
	if err != nil {
		return nil, fmt.Errorf("listing industry info: %w", err)
	}
	defer rows.Close()

	var out []model.IndustryInfo
	for rows.Next() {
		var (
			i            model.IndustryInfo
			trends, opps string
		)
		if err := rows.Scan(&i.IndustryType, &i.Description, &trends, &opps, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning industry info: %w", err)
		}
		i.Trends = decodeList(trends)
		i.Opportunities = decodeList(opps)
		out = append(out, i)
	}
	return out, rows.Err()
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(raw string) []string {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []string{}
	}
	return items
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
