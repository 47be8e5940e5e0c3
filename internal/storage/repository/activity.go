package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

// CreateActivity записывает действие пользователя в журнал активности.
func (s *Storage) CreateActivity(ctx context.Context, a models.Activity) (int, error) {
	const op = "storage.CreateActivity"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO user_activity (user_uid, username, action, details, ip, user_agent, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		nullIfEmpty(a.UserUID), nullIfEmpty(a.Username), a.Action,
		nullIfEmpty(a.Details), nullIfEmpty(a.IP), nullIfEmpty(a.UserAgent),
		metadata).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListActivities возвращает последние записи журнала активности, новые первыми.
func (s *Storage) ListActivities(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
	const op = "storage.ListActivities"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, username, action, details, ip, user_agent, metadata, created_at
			  FROM user_activity
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanActivity(row interface{ Scan(...any) error }) (*models.Activity, error) {
	a := &models.Activity{}
	var userUID, username, details, ip, userAgent sql.NullString
	var metadata []byte
	if err := row.Scan(&a.ID, &userUID, &username, &a.Action,
		&details, &ip, &userAgent, &metadata, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.UserUID = userUID.String
	a.Username = username.String
	a.Details = details.String
	a.IP = ip.String
	a.UserAgent = userAgent.String
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &a.Metadata)
	}
	return a, nil
}
