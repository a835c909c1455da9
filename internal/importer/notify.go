package importer

import (
	"github.com/rcliao/nodeset-import/internal/model"
	"github.com/rcliao/nodeset-import/internal/nodeset"
)

// MaxNotifications bounds the notification buffer.
const MaxNotifications = 5

// notifications is a newest-first FIFO capped at MaxNotifications.
type notifications []model.Notification

func (n notifications) push(severity model.Severity, message, details string) notifications {
	note := model.Notification{
		ID:       nodeset.NewID(),
		Severity: severity,
		Message:  message,
		Details:  details,
	}
	out := append(notifications{note}, n...)
	if len(out) > MaxNotifications {
		out = out[:MaxNotifications]
	}
	return out
}

func (n notifications) remove(id string) (notifications, bool) {
	for i, note := range n {
		if note.ID == id {
			return append(n[:i:i], n[i+1:]...), true
		}
	}
	return n, false
}
