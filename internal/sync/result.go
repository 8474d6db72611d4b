package sync

import (
	"errors"

	"reccord/internal/models"
)

// ErrConfigNotFound means the list has no sync config and cannot be synced
var ErrConfigNotFound = errors.New("sync config not found")

// SourceError records a per-source soft failure. The source contributed no
// tracks this cycle; sibling sources were unaffected.
type SourceError struct {
	Service models.Service `json:"service"`
	Err     error          `json:"-"`
}

func (e SourceError) Error() string {
	return string(e.Service) + ": " + e.Err.Error()
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one sync attempt for one list. Empty means zero
// tracks survived the merge: the watermark advanced but the previous item
// set was left untouched.
type Result struct {
	ListID    string        `json:"list_id"`
	ItemCount int           `json:"item_count"`
	Empty     bool          `json:"empty"`
	Errors    []SourceError `json:"errors,omitempty"`
}

// FailedServices names the sources that contributed nothing, for
// "reconnect X" messaging
func (r *Result) FailedServices() []models.Service {
	failed := make([]models.Service, len(r.Errors))
	for i, e := range r.Errors {
		failed[i] = e.Service
	}
	return failed
}

// Sweep tallies a batch run over all due lists of one mode
type Sweep struct {
	Mode       models.SyncMode `json:"mode"`
	Candidates int             `json:"total_candidates"`
	Synced     int             `json:"synced_count"`
	Failed     int             `json:"error_count"`
}
