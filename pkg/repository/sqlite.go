package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/model"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound          = goerr.New("record not found")
	ErrExecutionFinished = goerr.New("execution already finished")
)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	query           TEXT NOT NULL,
	status          TEXT NOT NULL,
	started_at      TEXT NOT NULL,
	completed_at    TEXT,
	result          TEXT
);

CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	content    TEXT NOT NULL,
	source     TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	is_deleted INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);

CREATE TABLE IF NOT EXISTS events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	event_type   TEXT NOT NULL,
	agent_name   TEXT,
	message      TEXT,
	timestamp    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_execution ON events(execution_id);

CREATE TABLE IF NOT EXISTS feedbacks (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	rating       TEXT NOT NULL,
	comment      TEXT,
	created_at   TEXT NOT NULL
);
`

// sqliteRepo implements Repository backed by SQLite via the pure Go driver.
type sqliteRepo struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path and prepares the schema.
func New(path string) (Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	// modernc.org/sqlite serializes writes through a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to initialize schema")
	}

	return &sqliteRepo{db: db}, nil
}

func (r *sqliteRepo) Close() error {
	return r.db.Close()
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (r *sqliteRepo) CreateExecution(ctx context.Context, exec *model.Execution) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO executions (id, conversation_id, query, status, started_at, result) VALUES (?, ?, ?, ?, ?, ?)`,
		string(exec.ID), string(exec.ConversationID), exec.Query, string(exec.Status), fmtTime(exec.StartedAt), exec.Result,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert execution", goerr.V("id", exec.ID))
	}
	return nil
}

func (r *sqliteRepo) GetExecution(ctx context.Context, id model.ExecutionID) (*model.Execution, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, query, status, started_at, completed_at, result FROM executions WHERE id = ?`,
		string(id),
	)

	var exec model.Execution
	var startedAt string
	var completedAt, result sql.NullString
	if err := row.Scan(&exec.ID, &exec.ConversationID, &exec.Query, &exec.Status, &startedAt, &completedAt, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "execution not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get execution", goerr.V("id", id))
	}

	exec.StartedAt = parseTime(startedAt)
	if completedAt.Valid {
		t := parseTime(completedAt.String)
		exec.CompletedAt = &t
	}
	if result.Valid {
		exec.Result = result.String
	}

	return &exec, nil
}

func (r *sqliteRepo) UpdateExecutionStatus(ctx context.Context, id model.ExecutionID, status model.ExecutionStatus, result string) error {
	if err := status.Validate(); err != nil {
		return err
	}

	// completed and failed are terminal; only a running execution may move
	var res sql.Result
	var err error
	if status.Terminal() {
		res, err = r.db.ExecContext(ctx,
			`UPDATE executions SET status = ?, result = ?, completed_at = ? WHERE id = ? AND status = ?`,
			string(status), result, fmtTime(time.Now()), string(id), string(model.ExecutionStatusRunning),
		)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE executions SET status = ?, result = ? WHERE id = ? AND status = ?`,
			string(status), result, string(id), string(model.ExecutionStatusRunning),
		)
	}
	if err != nil {
		return goerr.Wrap(err, "failed to update execution", goerr.V("id", id), goerr.V("status", status))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check execution update", goerr.V("id", id))
	}
	if n == 0 {
		if _, err := r.GetExecution(ctx, id); err != nil {
			return err
		}
		return goerr.Wrap(ErrExecutionFinished, "execution status is immutable", goerr.V("id", id), goerr.V("status", status))
	}
	return nil
}

func (r *sqliteRepo) PutEvent(ctx context.Context, event *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (execution_id, event_type, agent_name, message, timestamp) VALUES (?, ?, ?, ?, ?)`,
		string(event.ExecutionID), string(event.EventType), event.AgentName, event.Message, fmtTime(event.Timestamp),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert event", goerr.V("execution_id", event.ExecutionID))
	}
	return nil
}

func (r *sqliteRepo) ListEvents(ctx context.Context, id model.ExecutionID) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, execution_id, event_type, agent_name, message, timestamp FROM events WHERE execution_id = ? ORDER BY timestamp, id`,
		string(id),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list events", goerr.V("execution_id", id))
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		var ev model.Event
		var agentName, message sql.NullString
		var ts string
		if err := rows.Scan(&ev.ID, &ev.ExecutionID, &ev.EventType, &agentName, &message, &ts); err != nil {
			return nil, goerr.Wrap(err, "failed to scan event")
		}
		ev.AgentName = agentName.String
		ev.Message = message.String
		ev.Timestamp = parseTime(ts)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate events")
	}

	return events, nil
}

func (r *sqliteRepo) CreateMemory(ctx context.Context, mem *model.Memory) error {
	if err := mem.Type.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memories (id, type, content, source, created_at, updated_at, is_deleted) VALUES (?, ?, ?, ?, ?, ?, 0)`,
		string(mem.ID), string(mem.Type), mem.Content, mem.Source, fmtTime(mem.CreatedAt), fmtTime(mem.UpdatedAt),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert memory", goerr.V("id", mem.ID))
	}
	return nil
}

func (r *sqliteRepo) GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, type, content, source, created_at, updated_at, is_deleted FROM memories WHERE id = ?`,
		string(id),
	)

	mem, err := scanMemory(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("id", id))
	}

	return mem, nil
}

func (r *sqliteRepo) ListMemories(ctx context.Context, memType model.MemoryType) ([]*model.Memory, error) {
	query := `SELECT id, type, content, source, created_at, updated_at, is_deleted FROM memories WHERE is_deleted = 0`
	args := []any{}
	if memType != "" {
		query += ` AND type = ?`
		args = append(args, string(memType))
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories")
	}
	defer rows.Close()

	var memories []*model.Memory
	for rows.Next() {
		mem, err := scanMemory(rows.Scan)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan memory")
		}
		memories = append(memories, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate memories")
	}

	return memories, nil
}

func (r *sqliteRepo) UpdateMemoryContent(ctx context.Context, id model.MemoryID, content string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE memories SET content = ?, updated_at = ? WHERE id = ?`,
		content, fmtTime(time.Now()), string(id),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to update memory", goerr.V("id", id))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("id", id))
	}
	return nil
}

func (r *sqliteRepo) SoftDeleteMemory(ctx context.Context, id model.MemoryID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memories SET is_deleted = 1, updated_at = ? WHERE id = ?`,
		fmtTime(time.Now()), string(id),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("id", id))
	}
	return nil
}

func (r *sqliteRepo) PutFeedback(ctx context.Context, fb *model.Feedback) error {
	if err := fb.Rating.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedbacks (execution_id, rating, comment, created_at) VALUES (?, ?, ?, ?)`,
		string(fb.ExecutionID), string(fb.Rating), fb.Comment, fmtTime(fb.CreatedAt),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert feedback", goerr.V("execution_id", fb.ExecutionID))
	}
	return nil
}

func scanMemory(scan func(dest ...any) error) (*model.Memory, error) {
	var mem model.Memory
	var source sql.NullString
	var createdAt, updatedAt string
	var deleted int
	if err := scan(&mem.ID, &mem.Type, &mem.Content, &source, &createdAt, &updatedAt, &deleted); err != nil {
		return nil, err
	}
	mem.Source = source.String
	mem.CreatedAt = parseTime(createdAt)
	mem.UpdatedAt = parseTime(updatedAt)
	mem.IsDeleted = deleted != 0
	return &mem, nil
}
