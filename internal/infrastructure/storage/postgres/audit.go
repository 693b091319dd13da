package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "posledger/internal/core/context"
	"posledger/internal/core/id"
	"posledger/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry represents a single audit log row.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	DeviceID          string          `db:"device_id" json:"device_id"`
	EntityType        string          `db:"entity_type" json:"entity_type"`
	EntityID          id.ID           `db:"entity_id" json:"entity_id"`
	Action            audit.Action    `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"user_id"`
	UserEmail         string          `db:"user_email" json:"user_email,omitempty"`
	Changes           json.RawMessage `db:"changes" json:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// AuditStore writes sys_audit. Snapshots above the threshold are stored
// zstd-compressed.
type AuditStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Store = (*AuditStore)(nil)

// NewAuditStore creates an audit store.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// LogChange records a before/after snapshot for an entity.
func (s *AuditStore) LogChange(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	body, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	entry := AuditEntry{
		ID:              id.New(),
		EntityType:      entityType,
		EntityID:        entityID,
		Action:          action,
		Changes:         body,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}
	if u := appctx.GetUser(ctx); u != nil {
		entry.DeviceID = u.DeviceID
		entry.UserID = u.UserID
		entry.UserEmail = u.Email
	}
	s.compress(&entry)

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, device_id, entity_type, entity_id, action, user_id, user_email,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		entry.ID, entry.DeviceID, entry.EntityType, entry.EntityID, entry.Action,
		entry.UserID, entry.UserEmail,
		nullableJSON(entry.Changes), entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History returns the newest audit rows for an entity, decompressed.
func (s *AuditStore) History(ctx context.Context, deviceID, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, `
		SELECT id, device_id, entity_type, entity_id, action, user_id, user_email,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE device_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
		LIMIT $4
	`, deviceID, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}

	for i := range entries {
		if err := s.decompress(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *AuditStore) compress(e *AuditEntry) {
	if len(e.Changes) <= s.compressThreshold {
		return
	}
	e.ChangesCompressed = s.encoder.EncodeAll(e.Changes, nil)
	e.Changes = nil
	e.CompressionAlgo = CompressionZstd
}

func (s *AuditStore) decompress(e *AuditEntry) error {
	if e.CompressionAlgo != CompressionZstd || len(e.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(e.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit changes: %w", err)
	}
	e.Changes = raw
	e.ChangesCompressed = nil
	e.CompressionAlgo = CompressionNone
	return nil
}

func nullableJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
