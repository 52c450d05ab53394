package domain

import "time"

// AdminCode is a single-use invitation for admin self-registration.
type AdminCode struct {
	Code      string
	CreatedAt time.Time
	Used      bool
	UsedAt    *time.Time
}
