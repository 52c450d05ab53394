package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "OPEN"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
)

// ComplaintStatuses lists every status in display order.
var ComplaintStatuses = []ComplaintStatus{
	ComplaintStatusOpen,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
}

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// ComplaintCategory groups complaints for reporting.
type ComplaintCategory string

const (
	CategoryService  ComplaintCategory = "Service"
	CategoryProduct  ComplaintCategory = "Product"
	CategoryDelivery ComplaintCategory = "Delivery"
	CategoryOther    ComplaintCategory = "Other"
)

// ComplaintCategories lists every category in display order.
var ComplaintCategories = []ComplaintCategory{
	CategoryService,
	CategoryProduct,
	CategoryDelivery,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryService, CategoryProduct, CategoryDelivery, CategoryOther:
		return true
	}
	return false
}

// Complaint is a grievance record. Severity is fixed at creation and
// ResolvedAt is only ever written by a transition to RESOLVED.
type Complaint struct {
	ID             int64
	CustomerID     string
	Text           string
	Category       ComplaintCategory
	Severity       int
	SentimentScore float64
	Status         ComplaintStatus
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}
