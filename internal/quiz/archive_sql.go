package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLArchive persists completed attempts locally. It is the shadow of the
// system of record for the fire-and-forget submission: a row with
// remote_confirmed=false marks an attempt whose remote result never arrived.
type SQLArchive struct {
	db *sql.DB
}

func NewSQLArchive(db *sql.DB) *SQLArchive {
	return &SQLArchive{db: db}
}

type archivedAnswers struct {
	Answers []string `json:"answers"`
	Correct []bool   `json:"correct"`
}

// ArchiveAttempt implements Archiver. Re-archiving the same attempt ID
// updates the confirmation flag only.
func (s *SQLArchive) ArchiveAttempt(ctx context.Context, a Attempt, confirmed bool) error {
	aj, err := json.Marshal(archivedAnswers{Answers: a.Answers, Correct: a.Correct})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempt_archive
		(id,user_email,grade,topic,level,score,total,answers_json,elapsed_sec,reason,tab_switches,started_at,ended_at,remote_confirmed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET remote_confirmed=EXCLUDED.remote_confirmed`,
		a.ID, a.UserEmail, a.Grade, a.Topic, a.Level, a.Score, len(a.Questions),
		string(aj), a.ElapsedSec, string(a.Reason), a.TabSwitches,
		a.StartedAt.Unix(), a.EndedAt.Unix(), confirmed)
	if err != nil {
		return fmt.Errorf("archive attempt %s: %w", a.ID, err)
	}
	return nil
}

// ArchivedAttempt is one archive row, answers unpacked.
type ArchivedAttempt struct {
	ID              string   `json:"id"`
	UserEmail       string   `json:"user_email"`
	Grade           int      `json:"grade"`
	Topic           string   `json:"topic"`
	Level           int      `json:"level"`
	Score           int      `json:"score"`
	Total           int      `json:"total"`
	Answers         []string `json:"answers"`
	Correct         []bool   `json:"correct"`
	ElapsedSec      int      `json:"elapsed_sec"`
	Reason          Reason   `json:"reason"`
	TabSwitches     int      `json:"tab_switches"`
	StartedAt       int64    `json:"started_at"`
	EndedAt         int64    `json:"ended_at"`
	RemoteConfirmed bool     `json:"remote_confirmed"`
}

// ListByUser returns a user's archived attempts, most recent first.
func (s *SQLArchive) ListByUser(ctx context.Context, email string, limit int) ([]ArchivedAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,user_email,grade,topic,level,score,total,
		answers_json,elapsed_sec,reason,tab_switches,started_at,ended_at,remote_confirmed
		FROM attempt_archive WHERE user_email=$1 ORDER BY ended_at DESC LIMIT $2`,
		email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedAttempt
	for rows.Next() {
		var a ArchivedAttempt
		var aj string
		if err := rows.Scan(&a.ID, &a.UserEmail, &a.Grade, &a.Topic, &a.Level, &a.Score, &a.Total,
			&aj, &a.ElapsedSec, &a.Reason, &a.TabSwitches, &a.StartedAt, &a.EndedAt, &a.RemoteConfirmed); err != nil {
			return nil, err
		}
		var packed archivedAnswers
		if err := json.Unmarshal([]byte(aj), &packed); err != nil {
			return nil, err
		}
		a.Answers, a.Correct = packed.Answers, packed.Correct
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetArchived fetches one archived attempt by ID.
func (s *SQLArchive) GetArchived(ctx context.Context, id string) (ArchivedAttempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,user_email,grade,topic,level,score,total,
		answers_json,elapsed_sec,reason,tab_switches,started_at,ended_at,remote_confirmed
		FROM attempt_archive WHERE id=$1`, id)
	var a ArchivedAttempt
	var aj string
	if err := row.Scan(&a.ID, &a.UserEmail, &a.Grade, &a.Topic, &a.Level, &a.Score, &a.Total,
		&aj, &a.ElapsedSec, &a.Reason, &a.TabSwitches, &a.StartedAt, &a.EndedAt, &a.RemoteConfirmed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ArchivedAttempt{}, errors.New("attempt not found")
		}
		return ArchivedAttempt{}, err
	}
	var packed archivedAnswers
	if err := json.Unmarshal([]byte(aj), &packed); err != nil {
		return ArchivedAttempt{}, err
	}
	a.Answers, a.Correct = packed.Answers, packed.Correct
	return a, nil
}
