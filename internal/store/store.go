package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Classification is one processed email and what the engine decided about it
type Classification struct {
	ID          int64
	MessageID   string
	Sender      string
	SenderName  string
	Subject     string
	Category    string
	Sentiment   string
	DealID      string
	DealName    string
	ToneVerdict string
	ReceivedAt  time.Time
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// Alert is one urgent-mail notification record
type Alert struct {
	ID             int64
	MessageID      string
	Sender         string
	Subject        string
	DealID         string
	DealName       string
	Preview        string
	Acknowledged   bool
	CreatedAt      time.Time
	AcknowledgedAt sql.NullTime
}

// LogEntry is one activity-log line
type LogEntry struct {
	ID        int64
	Event     string
	Detail    string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS email_classifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL UNIQUE,
		sender TEXT NOT NULL,
		sender_name TEXT,
		subject TEXT,
		category TEXT NOT NULL,
		sentiment TEXT NOT NULL,
		deal_id TEXT,
		deal_name TEXT,
		tone_verdict TEXT,
		received_at DATETIME,
		processed_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ec_category ON email_classifications(category);
	CREATE INDEX IF NOT EXISTS idx_ec_deal_id ON email_classifications(deal_id);
	CREATE INDEX IF NOT EXISTS idx_ec_received_at ON email_classifications(received_at);

	CREATE TABLE IF NOT EXISTS urgent_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		subject TEXT,
		deal_id TEXT,
		deal_name TEXT,
		preview TEXT,
		acknowledged INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		acknowledged_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_ua_acknowledged ON urgent_alerts(acknowledged);
	CREATE INDEX IF NOT EXISTS idx_ua_deal_id ON urgent_alerts(deal_id);

	CREATE TABLE IF NOT EXISTS activity_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// UpsertClassification inserts a classification, replacing the decision
// fields when the message was already processed. Keyed by message_id so
// re-running over the same mail is idempotent.
func (s *Store) UpsertClassification(c *Classification) error {
	query := `
	INSERT INTO email_classifications
		(message_id, sender, sender_name, subject, category, sentiment, deal_id, deal_name, tone_verdict, received_at, processed_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(message_id) DO UPDATE SET
		category = excluded.category,
		sentiment = excluded.sentiment,
		deal_id = excluded.deal_id,
		deal_name = excluded.deal_name,
		tone_verdict = excluded.tone_verdict,
		processed_at = excluded.processed_at
	`

	result, err := s.db.Exec(query,
		c.MessageID, c.Sender, c.SenderName, c.Subject,
		c.Category, c.Sentiment, c.DealID, c.DealName, c.ToneVerdict,
		c.ReceivedAt, time.Now(), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert classification: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		c.ID = id
	}
	return nil
}

// AddAlert records an urgent-mail alert
func (s *Store) AddAlert(a *Alert) error {
	query := `
	INSERT INTO urgent_alerts (message_id, sender, subject, deal_id, deal_name, preview, acknowledged, created_at)
	VALUES (?, ?, ?, ?, ?, ?, 0, ?)
	`

	result, err := s.db.Exec(query,
		a.MessageID, a.Sender, a.Subject, a.DealID, a.DealName, a.Preview, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id
	return nil
}

// AckAlert marks an alert acknowledged. Acknowledging twice is a no-op.
func (s *Store) AckAlert(id int64) error {
	query := `UPDATE urgent_alerts SET acknowledged = 1, acknowledged_at = ? WHERE id = ? AND acknowledged = 0`
	result, err := s.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	if n == 0 {
		// Distinguish "missing" from "already acknowledged"
		var exists int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM urgent_alerts WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to acknowledge alert: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("alert %d not found", id)
		}
	}
	return nil
}

// AddLog appends an activity-log entry
func (s *Store) AddLog(event, detail string) error {
	_, err := s.db.Exec(`INSERT INTO activity_log (event, detail, created_at) VALUES (?, ?, ?)`,
		event, detail, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// scanClassification handles nullable columns when scanning a row
func scanClassification(scanner interface{ Scan(...any) error }) (*Classification, error) {
	var c Classification
	var senderName, subject, dealID, dealName, toneVerdict sql.NullString
	var receivedAt, processedAt, createdAt sql.NullTime

	err := scanner.Scan(&c.ID, &c.MessageID, &c.Sender, &senderName, &subject,
		&c.Category, &c.Sentiment, &dealID, &dealName, &toneVerdict,
		&receivedAt, &processedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	c.SenderName = senderName.String
	c.Subject = subject.String
	c.DealID = dealID.String
	c.DealName = dealName.String
	c.ToneVerdict = toneVerdict.String
	c.ReceivedAt = receivedAt.Time
	c.ProcessedAt = processedAt.Time
	c.CreatedAt = createdAt.Time
	return &c, nil
}

func (s *Store) GetRecentClassifications(limit int) ([]Classification, error) {
	query := `
	SELECT id, message_id, sender, sender_name, subject, category, sentiment, deal_id, deal_name, tone_verdict, received_at, processed_at, created_at
	FROM email_classifications ORDER BY received_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer rows.Close()

	var classifications []Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		classifications = append(classifications, *c)
	}
	return classifications, rows.Err()
}

// GetClassificationByMessageID returns a single classification, nil when
// the message was never processed
func (s *Store) GetClassificationByMessageID(messageID string) (*Classification, error) {
	query := `
	SELECT id, message_id, sender, sender_name, subject, category, sentiment, deal_id, deal_name, tone_verdict, received_at, processed_at, created_at
	FROM email_classifications WHERE message_id = ?`

	c, err := scanClassification(s.db.QueryRow(query, messageID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query classification: %w", err)
	}
	return c, nil
}

// GetRecentAlerts returns recent alerts, optionally only unacknowledged ones
func (s *Store) GetRecentAlerts(limit int, unackedOnly bool) ([]Alert, error) {
	query := `
	SELECT id, message_id, sender, subject, deal_id, deal_name, preview, acknowledged, created_at, acknowledged_at
	FROM urgent_alerts`
	if unackedOnly {
		query += ` WHERE acknowledged = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var dealID, dealName, subject, preview sql.NullString
		var acknowledged int
		var createdAt sql.NullTime

		err := rows.Scan(&a.ID, &a.MessageID, &a.Sender, &subject, &dealID, &dealName,
			&preview, &acknowledged, &createdAt, &a.AcknowledgedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		a.Subject = subject.String
		a.DealID = dealID.String
		a.DealName = dealName.String
		a.Preview = preview.String
		a.Acknowledged = acknowledged == 1
		a.CreatedAt = createdAt.Time
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// GetCategoryStats returns processed-mail counts grouped by category
func (s *Store) GetCategoryStats() (map[string]int, error) {
	query := `SELECT category, COUNT(*) FROM email_classifications GROUP BY category`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		stats[category] = count
	}
	return stats, rows.Err()
}

// GetRecentLogs returns recent activity-log entries
func (s *Store) GetRecentLogs(limit int) ([]LogEntry, error) {
	query := `SELECT id, event, detail, created_at FROM activity_log ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var detail sql.NullString
		var createdAt sql.NullTime

		if err := rows.Scan(&e.ID, &e.Event, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		e.Detail = detail.String
		e.CreatedAt = createdAt.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "triage.db"
	}
	return filepath.Join(home, ".triage", "triage.db")
}
