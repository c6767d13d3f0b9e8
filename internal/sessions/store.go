package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	SessionID int64     `json:"session_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Turn struct {
	TurnID            int64     `json:"turn_id"`
	SessionID         int64     `json:"session_id"`
	CreatedAt         time.Time `json:"created_at"`
	Intent            string    `json:"intent"`
	Question          string    `json:"question"`
	ClarifiedQuestion string    `json:"clarified_question,omitempty"`
	SQLText           string    `json:"sql,omitempty"`
	RowCount          int       `json:"row_count"`
	ChartType         string    `json:"chart_type,omitempty"`
}

type SaveTurnInput struct {
	SessionID         int64
	Intent            string
	Question          string
	ClarifiedQuestion string
	SQLText           string
	RowCount          int
	ChartType         string
}

type Feedback struct {
	FeedbackID int64     `json:"feedback_id"`
	TurnID     int64     `json:"turn_id"`
	Vote       string    `json:"vote"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists sessions, their question/answer turns, and user feedback
// in Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sessions db: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, name string) (Session, error) {
	query := `
INSERT INTO app_session (name)
VALUES ($1)
RETURNING session_id, created_at`

	session := Session{Name: name}
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&session.SessionID, &session.CreatedAt); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *Store) GetSessionByName(ctx context.Context, name string) (Session, error) {
	query := `
SELECT session_id, name, created_at
FROM app_session
WHERE name = $1`

	var session Session
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&session.SessionID, &session.Name, &session.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *Store) GetOrCreateSession(ctx context.Context, name string) (Session, error) {
	session, err := s.GetSessionByName(ctx, name)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}
	return s.CreateSession(ctx, name)
}

func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, name, created_at
FROM app_session
ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]Session, 0)
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.SessionID, &session.Name, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return sessions, nil
}

func (s *Store) RenameSession(ctx context.Context, sessionID int64, newName string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE app_session SET name = $1 WHERE session_id = $2`, newName, sessionID)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename session rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM app_session WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) SaveTurn(ctx context.Context, in SaveTurnInput) (Turn, error) {
	query := `
INSERT INTO session_turn (session_id, intent, question, clarified_question, sql_text, row_count, chart_type)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING turn_id, created_at`

	turn := Turn{
		SessionID:         in.SessionID,
		Intent:            in.Intent,
		Question:          in.Question,
		ClarifiedQuestion: in.ClarifiedQuestion,
		SQLText:           in.SQLText,
		RowCount:          in.RowCount,
		ChartType:         in.ChartType,
	}
	if err := s.db.QueryRowContext(ctx, query,
		in.SessionID, in.Intent, in.Question, in.ClarifiedQuestion, in.SQLText, in.RowCount, in.ChartType,
	).Scan(&turn.TurnID, &turn.CreatedAt); err != nil {
		return Turn{}, fmt.Errorf("save turn: %w", err)
	}
	return turn, nil
}

func (s *Store) ListTurns(ctx context.Context, sessionID int64) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT turn_id, session_id, created_at, intent, question, clarified_question, sql_text, row_count, chart_type
FROM session_turn
WHERE session_id = $1
ORDER BY turn_id DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	turns := make([]Turn, 0)
	for rows.Next() {
		var turn Turn
		if err := rows.Scan(
			&turn.TurnID, &turn.SessionID, &turn.CreatedAt, &turn.Intent, &turn.Question,
			&turn.ClarifiedQuestion, &turn.SQLText, &turn.RowCount, &turn.ChartType,
		); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}
	return turns, nil
}

func (s *Store) SaveFeedback(ctx context.Context, turnID int64, vote, comment string) (Feedback, error) {
	query := `
INSERT INTO app_feedback (turn_id, vote, comment)
VALUES ($1, $2, $3)
RETURNING feedback_id, created_at`

	feedback := Feedback{TurnID: turnID, Vote: vote, Comment: comment}
	if err := s.db.QueryRowContext(ctx, query, turnID, vote, comment).Scan(&feedback.FeedbackID, &feedback.CreatedAt); err != nil {
		return Feedback{}, fmt.Errorf("save feedback: %w", err)
	}
	return feedback, nil
}

// DeleteTurnsBefore removes turns older than the cutoff; feedback rows go
// with them via ON DELETE CASCADE.
func (s *Store) DeleteTurnsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM session_turn WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old turns: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete old turns rows affected: %w", err)
	}
	return affected, nil
}
