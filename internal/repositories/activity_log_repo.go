package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ultimatepos/activitylog/internal/models"
)

const activityLogColumns = `id, occurred_at, actor_id, actor_name, actor_email, action, log_category,
		       entity_label, entity_id, status, details, metadata`

var sortColumns = map[string]string{
	SortTimestamp:   "occurred_at",
	SortActorID:     "actor_id",
	SortLogCategory: "log_category",
	SortAction:      "action",
	SortStatus:      "status",
}

type PostgresActivityLogRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresActivityLogRepo(pool *pgxpool.Pool) *PostgresActivityLogRepo {
	return &PostgresActivityLogRepo{pool: pool}
}

func (r *PostgresActivityLogRepo) Insert(ctx context.Context, l *models.ActivityLog) error {
	var meta []byte
	if l.Metadata != nil {
		var err error
		if meta, err = json.Marshal(l.Metadata); err != nil {
			return err
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (id, occurred_at, actor_id, actor_name, actor_email, action, log_category,
		                          entity_label, entity_id, status, details, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, l.ID, l.Timestamp, l.ActorID, l.ActorName, l.ActorEmail, l.Action, l.LogCategory,
		l.EntityLabel, l.EntityID, l.Status, l.Details, meta)
	return err
}

func (r *PostgresActivityLogRepo) GetByID(ctx context.Context, id string) (*models.ActivityLog, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+activityLogColumns+` FROM activity_log WHERE id = $1`, id)
	l, err := scanActivityLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *PostgresActivityLogRepo) List(ctx context.Context, f ActivityLogFilter, s ActivityLogSort, after *Cursor, limit int) ([]models.ActivityLog, error) {
	query, args, err := buildActivityLogListQuery(f, s, after, limit)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		l, err := scanActivityLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func (r *PostgresActivityLogRepo) Count(ctx context.Context, f ActivityLogFilter) (int64, error) {
	where, args := buildActivityLogWhere(f)
	query := `SELECT count(*) FROM activity_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var n int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func buildActivityLogWhere(f ActivityLogFilter) ([]string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.DateFrom != nil {
		add("occurred_at >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("occurred_at <= $%d", *f.DateTo)
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.LogCategory != "" {
		add("log_category = $%d", f.LogCategory)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	return where, args
}

func buildActivityLogListQuery(f ActivityLogFilter, s ActivityLogSort, after *Cursor, limit int) (string, []any, error) {
	where, args := buildActivityLogWhere(f)
	argIdx := len(args) + 1

	col, ok := sortColumns[s.Field]
	if !ok {
		return "", nil, fmt.Errorf("unknown sort field %q", s.Field)
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}

	if after != nil {
		where = append(where, keysetClause(col, s.Desc, argIdx))
		args = append(args, after.SortValue(), after.ID)
		argIdx += 2
	}

	query := `SELECT ` + activityLogColumns + ` FROM activity_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT $%d", col, dir, dir, argIdx)
	args = append(args, limit)
	return query, args, nil
}

// keysetClause selects the rows after the cursor row under (col, id) order.
// It consumes two args: the cursor's sort value, then its id.
func keysetClause(col string, desc bool, argIdx int) string {
	cmp := ">"
	if desc {
		cmp = "<"
	}
	return fmt.Sprintf("(%s, id) %s ($%d, $%d)", col, cmp, argIdx, argIdx+1)
}

func scanActivityLog(row pgx.Row) (*models.ActivityLog, error) {
	var l models.ActivityLog
	var meta []byte
	if err := row.Scan(&l.ID, &l.Timestamp, &l.ActorID, &l.ActorName, &l.ActorEmail, &l.Action, &l.LogCategory,
		&l.EntityLabel, &l.EntityID, &l.Status, &l.Details, &meta); err != nil {
		return nil, err
	}
	l.Timestamp = l.Timestamp.UTC()
	if len(meta) > 0 {
		l.Metadata = &models.ActivityLogMetadata{}
		if err := json.Unmarshal(meta, l.Metadata); err != nil {
			return nil, err
		}
	}
	return &l, nil
}
