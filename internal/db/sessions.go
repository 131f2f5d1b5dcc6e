package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rsclarke/k6rec/internal/jsonenc"
	"github.com/rsclarke/k6rec/internal/models"
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SaveSession archives a flushed recording and its calls, returning the new
// session ID. Calls must already be redacted.
func SaveSession(d *sql.DB, slug, title, scriptPath string, calls []models.RecordedCall) (string, error) {
	id := uuid.NewString()

	tx, err := d.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		"INSERT INTO sessions (id, slug, title, script_path, created_at) VALUES (?, ?, ?, ?, ?)",
		id, slug, title, scriptPath, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	for i, c := range calls {
		headers, err := json.Marshal(c.Headers)
		if err != nil {
			return "", fmt.Errorf("marshal headers: %w", err)
		}
		respHeaders, err := json.Marshal(c.ResponseHeaders)
		if err != nil {
			return "", fmt.Errorf("marshal response headers: %w", err)
		}
		var body sql.NullString
		if c.Body != nil {
			b, err := jsonenc.Marshal(c.Body)
			if err != nil {
				return "", fmt.Errorf("marshal body of call %d: %w", i, err)
			}
			body = sql.NullString{String: string(b), Valid: true}
		}
		_, err = tx.Exec(
			"INSERT INTO calls (session_id, seq, name, method, url, headers, body, status, response_headers) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			id, i, c.Name, c.Method, c.URL, string(headers), body, c.Status, string(respHeaders),
		)
		if err != nil {
			return "", fmt.Errorf("insert call %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListSessions returns archived sessions, newest first.
func ListSessions(d *sql.DB) ([]models.Session, error) {
	rows, err := d.Query(`
		SELECT s.id, s.slug, s.title, s.script_path, s.created_at, COUNT(c.seq)
		FROM sessions s
		LEFT JOIN calls c ON c.session_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at DESC, s.rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.Slug, &s.Title, &s.ScriptPath, &s.CreatedAt, &s.CallCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSession looks up one session by ID.
func GetSession(d *sql.DB, id string) (*models.Session, error) {
	var s models.Session
	err := d.QueryRow(`
		SELECT s.id, s.slug, s.title, s.script_path, s.created_at,
			(SELECT COUNT(*) FROM calls c WHERE c.session_id = s.id)
		FROM sessions s WHERE s.id = ?
	`, id).Scan(&s.ID, &s.Slug, &s.Title, &s.ScriptPath, &s.CreatedAt, &s.CallCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionCalls returns the calls of a session in recorded order. Bodies
// come back as json.RawMessage.
func GetSessionCalls(d *sql.DB, id string) ([]models.RecordedCall, error) {
	rows, err := d.Query(
		"SELECT name, method, url, headers, body, status, response_headers FROM calls WHERE session_id = ? ORDER BY seq",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []models.RecordedCall
	for rows.Next() {
		var (
			c           models.RecordedCall
			headers     string
			body        sql.NullString
			respHeaders string
		)
		if err := rows.Scan(&c.Name, &c.Method, &c.URL, &headers, &body, &c.Status, &respHeaders); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(headers), &c.Headers); err != nil {
			return nil, fmt.Errorf("decode headers: %w", err)
		}
		if err := json.Unmarshal([]byte(respHeaders), &c.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("decode response headers: %w", err)
		}
		if body.Valid {
			c.Body = json.RawMessage(body.String)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// DeleteSession removes a session and its calls.
func DeleteSession(d *sql.DB, id string) error {
	res, err := d.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
