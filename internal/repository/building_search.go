package repository

import (
	"context"
	"strings"
)

// Paging limits for building search.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// BuildingSearchQuery filters and paginates the public building list.
type BuildingSearchQuery struct {
	Name          string
	AvailableOnly bool
	Page          int
	PageSize      int
}

// Normalize clamps paging to sane values.
func (q *BuildingSearchQuery) Normalize() {
	q.Name = strings.TrimSpace(q.Name)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

// Search returns one page of buildings with their spot counts, oldest
// first, and the total number of matches.
func (r *BuildingRepo) Search(ctx context.Context, q BuildingSearchQuery) ([]BuildingSummary, int64, error) {
	q.Normalize()
	where := "1=1"
	args := []any{}
	if q.Name != "" {
		where = "LOWER(b.name) LIKE ?"
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	grouped := `FROM buildings b
		LEFT JOIN spots s ON s.building_id = b.id
		WHERE ` + where + `
		GROUP BY b.id, b.name, b.capacity, b.created_at`
	if q.AvailableOnly {
		grouped += `
		HAVING COUNT(s.id) > COALESCE(SUM(s.is_occupied), 0)`
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM (SELECT b.id ` + grouped + `) t`
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT b.id, b.name, b.capacity, b.created_at,
			COUNT(s.id), COALESCE(SUM(s.is_occupied), 0) ` + grouped + `
		ORDER BY b.id
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]BuildingSummary, 0, q.PageSize)
	for rows.Next() {
		var s BuildingSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Capacity, &s.CreatedAt, &s.TotalSpots, &s.OccupiedSpots); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
