package models

import (
	"time"
)

type AdmissionOutcome string

const (
	AdmissionAutoApproved AdmissionOutcome = "auto_approved"
	AdmissionQueued       AdmissionOutcome = "queued"
	AdmissionApproved     AdmissionOutcome = "approved"
	AdmissionRejected     AdmissionOutcome = "rejected"
)

// AdmissionEvent - событие обработки заявки, публикуемое во внешнюю шину.
type AdmissionEvent struct {
	ChatID     int64
	UserID     int64
	Outcome    AdmissionOutcome
	OccurredAt time.Time
}
