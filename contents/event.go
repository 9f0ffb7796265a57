package contents

import "time"

// ChangeType identifies what a mutating operation did.
type ChangeType string

const (
	ChangeNew    ChangeType = "new"
	ChangeRename ChangeType = "rename"
	ChangeSave   ChangeType = "save"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is published after every mutating drive operation, including
// ones that partially failed.
type ChangeEvent struct {
	Type     ChangeType `json:"type"`
	OldValue *Model     `json:"old_value"`
	NewValue *Model     `json:"new_value"`
}

// Checkpoint is a version marker. Object stores keep no versions, so the only
// checkpoint ever produced is the empty marker.
type Checkpoint struct {
	ID           string    `json:"id"`
	LastModified time.Time `json:"last_modified,omitzero"`
}
