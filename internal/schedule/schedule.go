package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"crate/internal/services"
	"crate/internal/store"
)

// RSSSync is the feed sync task whose next run bounds pending-release timing.
const RSSSync = "RssSync"

// Task is one recurring job and its execution history.
type Task struct {
	Name          string
	Interval      time.Duration
	LastExecution time.Time
	LastStartTime time.Time
}

// NextExecution is when the task is due. A zero interval means the task is
// disabled and never comes due again.
func (t Task) NextExecution() time.Time {
	if t.Interval <= 0 {
		return time.Time{}
	}
	return t.LastExecution.Add(t.Interval)
}

type taskRow struct {
	TypeName        string         `db:"type_name"`
	IntervalMinutes int            `db:"interval_minutes"`
	LastExecution   string         `db:"last_execution"`
	LastStartTime   sql.NullString `db:"last_start_time"`
}

// Service reads and records scheduled task executions.
type Service struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{db: st.DB(), now: time.Now}
}

// WithClock returns a copy of the service reading time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// Register ensures a task exists and carries the given interval. A newly
// registered task counts as having just run.
func (s *Service) Register(ctx context.Context, name string, interval time.Duration) error {
	if name == "" {
		return services.Wrap(services.ErrValidation, "schedule", "register", "task name is required", nil)
	}
	minutes := int(interval / time.Minute)

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertIgnoreInto("scheduled_tasks")
	ib.Cols("type_name", "interval_minutes", "last_execution")
	ib.Values(name, minutes, store.FormatTime(s.now()))
	insertQuery, insertArgs := ib.Build()

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("scheduled_tasks")
	ub.Set(ub.Assign("interval_minutes", minutes))
	ub.Where(ub.Equal("type_name", name))
	updateQuery, updateArgs := ub.Build()

	err := store.Retry(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return err
		}
		_, err := s.db.ExecContext(ctx, updateQuery, updateArgs...)
		return err
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "schedule", "register", fmt.Sprintf("register task %s", name), err)
	}
	return nil
}

// RecordExecution stores the start and finish times of a completed run.
func (s *Service) RecordExecution(ctx context.Context, name string, started, finished time.Time) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("scheduled_tasks")
	ub.Set(
		ub.Assign("last_execution", store.FormatTime(finished)),
		ub.Assign("last_start_time", store.FormatTime(started)),
	)
	ub.Where(ub.Equal("type_name", name))
	query, args := ub.Build()

	var affected int64
	err := store.Retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "schedule", "record execution", name, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "schedule", "record execution", fmt.Sprintf("task %s is not registered", name), nil)
	}
	return nil
}

// Get returns a registered task or ErrNotFound.
func (s *Service) Get(ctx context.Context, name string) (Task, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("type_name", "interval_minutes", "last_execution", "last_start_time")
	sb.From("scheduled_tasks")
	sb.Where(sb.Equal("type_name", name))
	query, args := sb.Build()

	var row taskRow
	err := store.Retry(ctx, func() error {
		return s.db.GetContext(ctx, &row, query, args...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, services.Wrap(services.ErrNotFound, "schedule", "get", fmt.Sprintf("task %s is not registered", name), nil)
	}
	if err != nil {
		return Task{}, services.Wrap(services.ErrTransient, "schedule", "get", name, err)
	}
	return row.task()
}

// Tasks lists every registered task by name.
func (s *Service) Tasks(ctx context.Context) ([]Task, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("type_name", "interval_minutes", "last_execution", "last_start_time")
	sb.From("scheduled_tasks")
	sb.OrderBy("type_name")
	query, args := sb.Build()

	var rows []taskRow
	if err := store.Retry(ctx, func() error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows, query, args...)
	}); err != nil {
		return nil, services.Wrap(services.ErrTransient, "schedule", "list", "select tasks", err)
	}
	tasks := make([]Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// NextExecution returns when the named task is next due.
func (s *Service) NextExecution(ctx context.Context, name string) (time.Time, error) {
	task, err := s.Get(ctx, name)
	if err != nil {
		return time.Time{}, err
	}
	return task.NextExecution(), nil
}

func (r taskRow) task() (Task, error) {
	last, err := store.ParseTime(r.LastExecution)
	if err != nil {
		return Task{}, fmt.Errorf("task %s last execution: %w", r.TypeName, err)
	}
	task := Task{
		Name:          r.TypeName,
		Interval:      time.Duration(r.IntervalMinutes) * time.Minute,
		LastExecution: last,
	}
	if r.LastStartTime.Valid {
		if started, err := store.ParseTime(r.LastStartTime.String); err == nil {
			task.LastStartTime = started
		}
	}
	return task, nil
}
