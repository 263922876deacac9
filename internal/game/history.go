package game

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// archiveVersion is bumped whenever the archive layout changes.
const archiveVersion = 1

// Turn groups the audit rows written by one executed action: the root row
// and the rows of every sub-action it cascaded into, in execution order.
type Turn struct {
	TransactionID string        `json:"transaction_id"`
	Seat          int           `json:"seat"`
	Root          ActionKind    `json:"action_type"`
	At            time.Time     `json:"at"`
	Entries       []*AuditEntry `json:"entries"`
}

// GroupByTransaction folds an oldest-first audit log into transactions.
// Rows without a transaction id form a group of their own.
func GroupByTransaction(entries []*AuditEntry) []*Turn {
	var groups []*Turn
	index := make(map[string]*Turn)
	for _, entry := range entries {
		if entry.TransactionID != "" {
			if g, ok := index[entry.TransactionID]; ok {
				g.Entries = append(g.Entries, entry)
				continue
			}
		}
		g := &Turn{
			TransactionID: entry.TransactionID,
			Seat:          entry.Seat,
			Root:          entry.Kind,
			At:            entry.CreatedAt,
			Entries:       []*AuditEntry{entry},
		}
		if entry.TransactionID != "" {
			index[entry.TransactionID] = g
		}
		groups = append(groups, g)
	}
	return groups
}

// AuditHistory returns the whole audit log of a session grouped by the
// action that caused each row, oldest first.
func (e *Engine) AuditHistory(ctx context.Context, sessionID int64) ([]*Turn, error) {
	entries, err := e.auditEntries(ctx, "audit_history", sessionID)
	if err != nil {
		return nil, err
	}
	return GroupByTransaction(entries), nil
}

// ArchiveAuditLog writes the full audit log of a session to w as a gzipped
// gob stream. It returns the number of rows written.
func (e *Engine) ArchiveAuditLog(ctx context.Context, sessionID int64, w io.Writer) (int, error) {
	entries, err := e.auditEntries(ctx, "archive_audit_log", sessionID)
	if err != nil {
		return 0, err
	}
	if err := WriteArchive(w, sessionID, entries, e.now()); err != nil {
		return 0, err
	}
	e.logger.Info("archived audit log",
		zap.Int64("session_id", sessionID),
		zap.Int("entries", len(entries)),
	)
	return len(entries), nil
}

func (e *Engine) auditEntries(ctx context.Context, op string, sessionID int64) ([]*AuditEntry, error) {
	var entries []*AuditEntry
	err := readOnly(ctx, e.store, func(tx Tx) error {
		if _, err := loadSession(ctx, tx, op, sessionID); err != nil {
			return err
		}
		rows, err := tx.AuditEntries(ctx, sessionID)
		if err != nil {
			return storeError(op, err)
		}
		entries = rows
		return nil
	})
	return entries, err
}

// archiveHeader precedes the entries in an archive stream.
type archiveHeader struct {
	SessionID  int64
	Timestamp  time.Time
	Version    int
	EntryCount int
}

// Archive is a decoded audit archive.
type Archive struct {
	SessionID int64
	CreatedAt time.Time
	Entries   []*AuditEntry
}

// WriteArchive encodes entries as a gzipped gob stream.
func WriteArchive(w io.Writer, sessionID int64, entries []*AuditEntry, at time.Time) error {
	gzipWriter := gzip.NewWriter(w)
	encoder := gob.NewEncoder(gzipWriter)

	header := archiveHeader{
		SessionID:  sessionID,
		Timestamp:  at,
		Version:    archiveVersion,
		EntryCount: len(entries),
	}
	if err := encoder.Encode(&header); err != nil {
		return fmt.Errorf("failed to encode archive header: %w", err)
	}
	for i, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode audit entry %d: %w", i, err)
		}
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	return nil
}

// ReadArchive decodes a stream produced by WriteArchive.
func ReadArchive(r io.Reader) (*Archive, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var header archiveHeader
	if err := decoder.Decode(&header); err != nil {
		return nil, fmt.Errorf("failed to decode archive header: %w", err)
	}
	if header.Version != archiveVersion {
		return nil, fmt.Errorf("unsupported archive version: %d", header.Version)
	}

	archive := &Archive{
		SessionID: header.SessionID,
		CreatedAt: header.Timestamp,
		Entries:   make([]*AuditEntry, 0, header.EntryCount),
	}
	for i := 0; i < header.EntryCount; i++ {
		var entry AuditEntry
		if err := decoder.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode audit entry %d: %w", i, err)
		}
		archive.Entries = append(archive.Entries, &entry)
	}
	return archive, nil
}
