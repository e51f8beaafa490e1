package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	pkgch "RateCast/pkg/clickhouse"
)

const artifactsTable = "ratecast.artifacts"

// CHArtifactStore persists fitted artifact sets as JSON rows so a
// restart can resume from the last good snapshot.
type CHArtifactStore struct {
	db *sql.DB
}

func NewCHArtifactStore(ch *pkgch.Client) domrepo.ArtifactStore {
	return &CHArtifactStore{db: ch.DB()}
}

func (s *CHArtifactStore) SaveArtifacts(ctx context.Context, propertyID string, set *models.ArtifactSet) error {
	if set == nil {
		return fmt.Errorf("artifact set is nil")
	}
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (property_id, refitted_at, payload) VALUES (?, ?, ?)", artifactsTable)
	if _, err := s.db.ExecContext(ctx, q, propertyID, set.RefittedAt, string(payload)); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}
	return nil
}

func (s *CHArtifactStore) LoadLatest(ctx context.Context, propertyID string) (*models.ArtifactSet, error) {
	q := fmt.Sprintf(`
        SELECT payload
        FROM %s
        WHERE property_id = ?
        ORDER BY refitted_at DESC
        LIMIT 1`, artifactsTable)
	var payload string
	err := s.db.QueryRowContext(ctx, q, propertyID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	var set models.ArtifactSet
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		return nil, fmt.Errorf("unmarshal artifacts: %w", err)
	}
	if set.RefittedAt.IsZero() {
		set.RefittedAt = time.Now().UTC()
	}
	return &set, nil
}
