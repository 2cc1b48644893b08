// Package db is the local device notification store. Registered triggers live in a sqlite
// file so they survive restarts of the app, the way an OS scheduler keeps them.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/matt-steen/care-tracker/pkg/notify"
	"github.com/rs/zerolog/log"

	// use the sqlite db driver.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed base.sql
var baseSQL string

// Database manages the db connection and implements notify.Device.
type Database struct {
	conn    *sqlx.DB
	allowed bool
	loc     *time.Location
}

type triggerRow struct {
	ID            string `db:"id"`
	Tag           string `db:"tag"`
	Key           string `db:"trigger_key"`
	Title         string `db:"title"`
	Body          string `db:"body"`
	FireAt        int64  `db:"fire_at"`
	Weekday       int    `db:"weekday"`
	RepeatSeconds int64  `db:"repeat_seconds"`
	Created       int64  `db:"created_datetime"`
}

var _ notify.Device = (*Database)(nil)

// NewDatabase connects to the sqlite database at the given filename and initializes the
// structure if not present. allowNotifications is the answer given to permission requests;
// trigger times are reported in loc.
func NewDatabase(ctx context.Context, filename string, allowNotifications bool, loc *time.Location) (*Database, error) {
	conn, err := sqlx.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("error connecting to sqlite db at %s: %w", filename, err)
	}

	// sqlite allows a single writer; the delivery ticker and the ui share this handle
	conn.SetMaxOpenConns(1)

	if loc == nil {
		loc = time.Local
	}

	database := Database{
		conn:    conn,
		allowed: allowNotifications,
		loc:     loc,
	}

	err = database.initialize(ctx)
	if err != nil {
		conn.Close()

		return nil, err
	}

	return &database, nil
}

func (d *Database) initialize(ctx context.Context) error {
	// run idempotent setup sql to create empty tables if they don't exist
	if _, err := d.conn.ExecContext(ctx, baseSQL); err != nil {
		return fmt.Errorf("error running base sql: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.conn.Close()
}

// RequestPermission reports whether notifications are allowed on this device.
func (d *Database) RequestPermission(ctx context.Context) (bool, error) {
	return d.allowed, nil
}

// Register stores the trigger, replacing any trigger with the same key.
func (d *Database) Register(ctx context.Context, trigger notify.Trigger) (string, error) {
	row := triggerRow{
		ID:            uuid.NewString(),
		Tag:           trigger.Tag,
		Key:           trigger.Key,
		Title:         trigger.Title,
		Body:          trigger.Body,
		FireAt:        trigger.FireAt.Unix(),
		Weekday:       trigger.Weekday,
		RepeatSeconds: int64(trigger.Repeat / time.Second),
		Created:       time.Now().Unix(),
	}

	tx, err := d.conn.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("error starting transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM device_trigger WHERE trigger_key = $1`, row.Key); err != nil {
		tx.Rollback()

		return "", fmt.Errorf("error replacing trigger %s: %w", row.Key, err)
	}

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO device_trigger (id, tag, trigger_key, title, body, fire_at, weekday, repeat_seconds, created_datetime)
		     VALUES (:id, :tag, :trigger_key, :title, :body, :fire_at, :weekday, :repeat_seconds, :created_datetime)`,
		row,
	)
	if err != nil {
		tx.Rollback()

		return "", fmt.Errorf("error adding trigger %s: %w", row.Key, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("error committing trigger %s: %w", row.Key, err)
	}

	log.Debug().Str("id", row.ID).Str("key", row.Key).Time("fireAt", trigger.FireAt).Msg("registered trigger")

	return row.ID, nil
}

// CancelTag removes all triggers with the tag.
func (d *Database) CancelTag(ctx context.Context, tag string) error {
	result, err := d.conn.ExecContext(ctx, `DELETE FROM device_trigger WHERE tag = $1`, tag)
	if err != nil {
		return fmt.Errorf("error cancelling triggers for %s: %w", tag, err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		log.Debug().Str("tag", tag).Int64("count", n).Msg("cancelled triggers")
	}

	return nil
}

// Pending returns the triggers with the tag, ordered by fire time.
func (d *Database) Pending(ctx context.Context, tag string) ([]notify.Trigger, error) {
	return d.selectTriggers(ctx, `SELECT * FROM device_trigger WHERE tag = $1 ORDER BY fire_at, trigger_key`, tag)
}

// All returns every registered trigger, ordered by fire time.
func (d *Database) All(ctx context.Context) ([]notify.Trigger, error) {
	return d.selectTriggers(ctx, `SELECT * FROM device_trigger ORDER BY fire_at, trigger_key`)
}

// Due returns the triggers whose fire time is not after now.
func (d *Database) Due(ctx context.Context, now time.Time) ([]notify.Trigger, error) {
	return d.selectTriggers(ctx, `SELECT * FROM device_trigger WHERE fire_at <= $1 ORDER BY fire_at, trigger_key`, now.Unix())
}

// Advance deletes a fired one-shot trigger, or moves a repeating one to its first occurrence
// after now.
func (d *Database) Advance(ctx context.Context, trigger notify.Trigger, now time.Time) error {
	if !trigger.Recurring() {
		if _, err := d.conn.ExecContext(ctx, `DELETE FROM device_trigger WHERE id = $1`, trigger.ID); err != nil {
			return fmt.Errorf("error removing fired trigger %s: %w", trigger.Key, err)
		}

		return nil
	}

	next := trigger.FireAt.In(d.loc)
	for !next.After(now) {
		next = advanceOnce(next, trigger.Repeat)
	}

	_, err := d.conn.ExecContext(ctx, `UPDATE device_trigger SET fire_at = $1 WHERE id = $2`, next.Unix(), trigger.ID)
	if err != nil {
		return fmt.Errorf("error advancing trigger %s: %w", trigger.Key, err)
	}

	return nil
}

// advanceOnce keeps the wall-clock time of whole-day repeats across daylight saving changes.
func advanceOnce(t time.Time, repeat time.Duration) time.Time {
	const day = 24 * time.Hour

	if repeat%day == 0 {
		return t.AddDate(0, 0, int(repeat/day))
	}

	return t.Add(repeat)
}

func (d *Database) selectTriggers(ctx context.Context, query string, args ...interface{}) ([]notify.Trigger, error) {
	rows := []triggerRow{}

	if err := d.conn.SelectContext(ctx, &rows, query, args...); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("error loading triggers: %w", err)
	}

	triggers := make([]notify.Trigger, 0, len(rows))

	for _, row := range rows {
		triggers = append(triggers, notify.Trigger{
			ID:      row.ID,
			Tag:     row.Tag,
			Key:     row.Key,
			Title:   row.Title,
			Body:    row.Body,
			FireAt:  time.Unix(row.FireAt, 0).In(d.loc),
			Weekday: row.Weekday,
			Repeat:  time.Duration(row.RepeatSeconds) * time.Second,
		})
	}

	return triggers, nil
}
