// Package streaming receives live update events and merges them into
// the open timeline buffers.
package streaming

import "github.com/hmdqr/FastSM/internal/model"

// Event kinds.
const (
	EventNewStatus       = "new_status"
	EventNewNotification = "new_notification"
	EventDeleteStatus    = "delete_status"
	EventEditStatus      = "edit_status"
)

// Event is one live update. Exactly one payload field is set,
// according to Kind: Status for new and edited statuses, Notification
// for notifications, StatusID for deletes.
type Event struct {
	Kind         string              `json:"kind"`
	Status       *model.Status       `json:"status,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
	StatusID     string              `json:"status_id,omitempty"`
}
