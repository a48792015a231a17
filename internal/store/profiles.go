package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/fidash/internal/model"
)

// ErrProfileNotFound is returned when updating a profile that was never saved.
var ErrProfileNotFound = errors.New("profile not found")

// Profiles stores onboarding answers as JSON documents keyed by user id.
type Profiles struct {
	db  *sql.DB
	now func() time.Time
}

// Save writes p for userID, replacing any existing document, and stamps createdAt.
func (s *Profiles) Save(ctx context.Context, userID string, p model.Profile) (model.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Profile{}, errors.New("user id is required")
	}
	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = nil

	doc, err := json.Marshal(p)
	if err != nil {
		return model.Profile{}, fmt.Errorf("encoding profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, document, created_at, updated_at) VALUES (?, ?, ?, NULL)
		 ON CONFLICT(user_id) DO UPDATE SET document = excluded.document,
		   created_at = excluded.created_at, updated_at = NULL`,
		userID, string(doc), p.CreatedAt.Format(timeLayout))
	if err != nil {
		return model.Profile{}, fmt.Errorf("saving profile %s: %w", userID, err)
	}
	return p, nil
}

// Fetch returns the profile for userID, or nil when none was saved.
func (s *Profiles) Fetch(ctx context.Context, userID string) (*model.Profile, error) {
	doc, err := s.document(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.Profile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", userID, err)
	}
	return &p, nil
}

// UpdateProgress merges fields into the stored profile and stamps updatedAt.
// Field names are the profile's JSON names.
func (s *Profiles) UpdateProgress(ctx context.Context, userID string, fields map[string]any) (*model.Profile, error) {
	doc, err := s.document(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	if err := json.Unmarshal([]byte(doc), &merged); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", userID, err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	// createdAt belongs to Save.
	delete(merged, "createdAt")

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding profile update: %w", err)
	}
	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("applying profile update: %w", err)
	}

	var createdAt string
	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM profiles WHERE user_id = ?`, userID).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", userID, err)
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %s: %w", userID, err)
	}
	now := s.now().UTC()
	p.UpdatedAt = &now

	out, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE profiles SET document = ?, updated_at = ? WHERE user_id = ?`,
		string(out), now.Format(timeLayout), userID)
	if err != nil {
		return nil, fmt.Errorf("updating profile %s: %w", userID, err)
	}
	return &p, nil
}

func (s *Profiles) document(ctx context.Context, userID string) (string, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM profiles WHERE user_id = ?`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	if err != nil {
		return "", fmt.Errorf("reading profile %s: %w", userID, err)
	}
	return doc, nil
}
