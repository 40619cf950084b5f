//nolint:nilnil
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

var errNotConnected = errors.New("client is not connected")

// eventColumns is the column list shared by every event read, in scan order.
const eventColumns = "event_id, title, description, location, start_at, end_at, attrs"

// pool defines the interface for database operations.
// This interface is satisfied by *pgxpool.Pool and can be mocked for testing.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
	Ping(ctx context.Context) error
}

// Client is the Postgres-backed Events Read Store. It implements
// [types.EventStore].
type Client struct {
	conn pool
	opts *options
}

func New(opts ...Option) *Client {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Client{opts: o}
}

func (c *Client) Connect(ctx context.Context) error {
	// Close existing connection if any to prevent leaks
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("invalid Postgres db configuration: %w", err)
	}

	config, err := pgxpool.ParseConfig(c.opts.connectionString())
	if err != nil {
		return fmt.Errorf("failed to parse Postgres db connection string: %w", err)
	}

	if c.opts.poolMaxConnections != nil {
		config.MaxConns = *c.opts.poolMaxConnections
	}

	if c.opts.poolMinConnections != nil {
		config.MinConns = *c.opts.poolMinConnections
	}

	if c.opts.poolMaxConnectionLifetime != nil {
		config.MaxConnLifetime = *c.opts.poolMaxConnectionLifetime
	}

	if c.opts.poolMaxConnectionIdleTime != nil {
		config.MaxConnIdleTime = *c.opts.poolMaxConnectionIdleTime
	}

	if c.opts.poolHealthCheckPeriod != nil {
		config.HealthCheckPeriod = *c.opts.poolHealthCheckPeriod
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create new Postgres connection pool: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping Postgres db: %w", err)
	}

	c.conn = conn

	return nil
}

func (c *Client) Close(_ context.Context) error {
	if c.conn == nil {
		return nil
	}

	c.conn.Close()

	c.conn = nil

	return nil
}

// Ping checks that the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return errNotConnected
	}

	if err := c.conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Postgres db: %w", err)
	}

	return nil
}

// Init creates the events table and its start_at index if they do not exist,
// then verifies the table columns against information_schema unless
// skipSchemaValidation is true.
func (c *Client) Init(ctx context.Context, skipSchemaValidation bool) error {
	if c.conn == nil {
		return errNotConnected
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin init transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.createStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute create statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit init transaction: %w", err)
	}

	if skipSchemaValidation {
		return nil
	}

	query := "SELECT table_name, column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position"

	rows, err := c.conn.Query(ctx, query, c.opts.eventsTable)
	if err != nil {
		return fmt.Errorf("failed to query information schema: %w", err)
	}

	defer rows.Close()

	infoRows := map[string]*dbRow{}

	for rows.Next() {
		var table, column string
		infoRow := &dbRow{}

		if err := rows.Scan(&table, &column, &infoRow.DataType, &infoRow.IsNullable); err != nil {
			return fmt.Errorf("failed to scan row from information schema: %w", err)
		}

		infoRows[table+"."+column] = infoRow
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over rows from information schema: %w", err)
	}

	if err := c.opts.verifyCurrentDatabaseVersion(infoRows); err != nil {
		return fmt.Errorf("failed to verify current database version: %w", err)
	}

	return nil
}

// DropAllData drops the events table. It is intended for tests only.
func (c *Client) DropAllData(ctx context.Context) error {
	if c.conn == nil {
		return errNotConnected
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin drop tables transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.dropStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute drop statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit drop tables transaction: %w", err)
	}

	return nil
}

// GetEvent returns the event with the given ID, or (nil, nil) if the events
// table has no such row.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*types.Event, error) {
	if c.conn == nil {
		return nil, errNotConnected
	}

	if eventID == "" {
		return nil, errors.New("event ID cannot be empty")
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE event_id = $1", eventColumns, c.opts.eventsTable)

	row := c.conn.QueryRow(ctx, query, eventID)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to find event in Postgres db: %w", err)
	}

	return event, nil
}

// ListEvents returns every event, earliest start first. Events with the same
// start time are ordered by ID.
func (c *Client) ListEvents(ctx context.Context) ([]*types.Event, error) {
	if c.conn == nil {
		return nil, errNotConnected
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY start_at ASC, event_id ASC", eventColumns, c.opts.eventsTable)

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events in Postgres db: %w", err)
	}

	defer rows.Close()

	events := make([]*types.Event, 0)

	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row for event: %w", err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows for events: %w", err)
	}

	return events, nil
}

// SaveEvent inserts the event, or replaces every column of an existing event
// with the same ID.
func (c *Client) SaveEvent(ctx context.Context, event *types.Event) error {
	if c.conn == nil {
		return errNotConnected
	}

	sql, args, err := c.getEventUpsertSQL(event)
	if err != nil {
		return err
	}

	if _, err := c.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to save event to Postgres db: %w", err)
	}

	return nil
}

// SaveEvents upserts several events in one batch.
func (c *Client) SaveEvents(ctx context.Context, events ...*types.Event) error {
	if c.conn == nil {
		return errNotConnected
	}

	if len(events) == 0 {
		return nil
	}

	if len(events) == 1 {
		return c.SaveEvent(ctx, events[0])
	}

	batch := &pgx.Batch{}

	for _, event := range events {
		sql, args, err := c.getEventUpsertSQL(event)
		if err != nil {
			return err
		}

		batch.Queue(sql, args...)
	}

	results := c.conn.SendBatch(ctx, batch)

	defer results.Close()

	for _, event := range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save event %s to Postgres db: %w", event.EventID, err)
		}
	}

	return nil
}

func (c *Client) getEventUpsertSQL(event *types.Event) (string, []any, error) {
	if event == nil {
		return "", nil, errors.New("event cannot be nil")
	}

	if event.EventID == "" {
		return "", nil, errors.New("event ID cannot be empty")
	}

	if event.Title == "" {
		return "", nil, fmt.Errorf("title cannot be empty for event %s", event.EventID)
	}

	if event.StartAt.IsZero() {
		return "", nil, fmt.Errorf("start time cannot be empty for event %s", event.EventID)
	}

	attrs := "{}"

	if len(event.Attrs) > 0 {
		if !json.Valid(event.Attrs) {
			return "", nil, fmt.Errorf("attrs of event %s is not valid JSON", event.EventID)
		}

		attrs = string(event.Attrs)
	}

	param1 := event.EventID
	param2 := event.Title
	param3 := nullableString(event.Description)
	param4 := nullableString(event.Location)
	param5 := event.StartAt
	param6 := event.EndAt
	param7 := attrs

	statement := fmt.Sprintf("INSERT INTO %s (event_id, title, description, location, start_at, end_at, attrs) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (event_id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, location = EXCLUDED.location, start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at, attrs = EXCLUDED.attrs", c.opts.eventsTable)
	args := []any{param1, param2, param3, param4, param5, param6, param7}

	return statement, args, nil
}

func scanEvent(row pgx.Row) (*types.Event, error) {
	var (
		event       types.Event
		description *string
		location    *string
		endAt       *time.Time
		attrs       []byte
	)

	if err := row.Scan(&event.EventID, &event.Title, &description, &location, &event.StartAt, &endAt, &attrs); err != nil {
		return nil, err
	}

	if description != nil {
		event.Description = *description
	}

	if location != nil {
		event.Location = *location
	}

	event.EndAt = endAt

	// An empty object carries nothing; leave Attrs unset so it is omitted.
	if len(attrs) > 0 && string(attrs) != "{}" {
		event.Attrs = json.RawMessage(attrs)
	}

	return &event, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
