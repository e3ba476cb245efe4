package cache

import (
	"database/sql"
	"encoding/json"
)

// GetPromptAnswer returns the most specific previously recorded answer for
// (promptID, organization, repository), decoded into out, or reports
// found=false if neither scope has one. A repository-scoped answer (when
// repository is non-empty) overrides the organization-scoped one for the
// same organization, per spec.md §3.
func (s *Store) GetPromptAnswer(promptID, organization, repository string, out any) (bool, error) {
	found := false
	var payload string
	err := s.withShared(func(db *sql.DB) error {
		if repository != "" {
			err := db.QueryRow(
				`SELECT answer_json FROM prompts WHERE prompt_id = ? AND organization = ? AND repository = ?`,
				promptID, organization, repository,
			).Scan(&payload)
			if err == nil {
				found = true
				return nil
			}
			if err != sql.ErrNoRows {
				return &SerializationError{Table: "prompts", Cause: err}
			}
		}
		err := db.QueryRow(
			`SELECT answer_json FROM prompts WHERE prompt_id = ? AND organization = ? AND repository = ''`,
			promptID, organization,
		).Scan(&payload)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return &SerializationError{Table: "prompts", Cause: err}
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, &SerializationError{Table: "prompts", Cause: err}
	}
	return true, nil
}

// SetPromptAnswer records the user's answer for (promptID, organization,
// repository). Pass repository="" to record an organization-scoped
// default; a non-empty repository records a repository-level override
// that GetPromptAnswer prefers over the organization-scoped row.
func (s *Store) SetPromptAnswer(promptID, organization, repository string, answer any) error {
	payload, err := json.Marshal(answer)
	if err != nil {
		return &SerializationError{Table: "prompts", Cause: err}
	}
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO prompts(prompt_id, organization, repository, answer_json, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(prompt_id, organization, repository) DO UPDATE SET answer_json = excluded.answer_json, updated_at = excluded.updated_at`,
			promptID, organization, repository, string(payload), nowRFC3339(),
		)
		if err != nil {
			return &SerializationError{Table: "prompts", Cause: err}
		}
		return nil
	})
}
