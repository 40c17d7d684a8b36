package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// ArchiveService persists stamped events to MySQL so a node's causal
// history survives restarts. It is an optional sink: nodes without a
// configured DSN run entirely in memory.
type ArchiveService struct {
	db *sql.DB
}

// NewArchiveService creates the archive on an open database handle and
// ensures the backing table exists.
func NewArchiveService(db *sql.DB) (*ArchiveService, error) {
	as := &ArchiveService{db: db}
	if err := as.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to prepare archive schema: %v", err)
	}
	return as, nil
}

func (as *ArchiveService) ensureSchema() error {
	_, err := as.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			seq BIGINT AUTO_INCREMENT PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL,
			process_id VARCHAR(64) NOT NULL,
			event_type VARCHAR(64) NOT NULL,
			description TEXT,
			clock JSON NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE KEY uniq_event (event_id),
			KEY idx_process (process_id)
		)`)
	return err
}

// RecordEvent inserts one stamped event. Implements EventSink.
func (as *ArchiveService) RecordEvent(ev eventlog.Event) error {
	clockJSON, err := json.Marshal(ev.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode clock: %v", err)
	}

	_, err = as.db.Exec(
		`INSERT INTO events (event_id, process_id, event_type, description, clock, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ProcessID, string(ev.Type), ev.Description, clockJSON, ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %v", ev.ID, err)
	}
	return nil
}

// RecentEvents returns the most recently archived events for a process in
// insertion order.
func (as *ArchiveService) RecentEvents(processID string, limit int) ([]eventlog.Event, error) {
	rows, err := as.db.Query(
		`SELECT event_id, process_id, event_type, description, clock, created_at
		 FROM events WHERE process_id = ?
		 ORDER BY seq DESC LIMIT ?`,
		processID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %v", err)
	}
	defer rows.Close()

	var events []eventlog.Event
	for rows.Next() {
		var ev eventlog.Event
		var eventType string
		var clockJSON []byte
		if err := rows.Scan(&ev.ID, &ev.ProcessID, &eventType, &ev.Description, &clockJSON, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %v", err)
		}
		ev.Type = eventlog.EventType(eventType)
		ev.Snapshot = make(vclock.Snapshot)
		if err := json.Unmarshal(clockJSON, &ev.Snapshot); err != nil {
			log.Printf("[archive] bad clock for event %s: %v", ev.ID, err)
			continue
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; flip to insertion order
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// CountByType returns archived event counts per type for a process.
func (as *ArchiveService) CountByType(processID string) (map[eventlog.EventType]int, error) {
	rows, err := as.db.Query(
		`SELECT event_type, COUNT(*) FROM events WHERE process_id = ? GROUP BY event_type`,
		processID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %v", err)
	}
	defer rows.Close()

	counts := make(map[eventlog.EventType]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		counts[eventlog.EventType(eventType)] = count
	}
	return counts, rows.Err()
}

// Ping reports whether the archive database is reachable.
func (as *ArchiveService) Ping() error {
	return as.db.Ping()
}
