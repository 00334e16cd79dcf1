package models

import "gorm.io/gorm"

const (
	IncidentCategorySafety     = "safety"
	IncidentCategoryHarassment = "harassment"
	IncidentCategoryProperty   = "property"
	IncidentCategoryOther      = "other"
)

const (
	IncidentStatusOpen      = "open"
	IncidentStatusReviewed  = "reviewed"
	IncidentStatusResolved  = "resolved"
	IncidentStatusDismissed = "dismissed"
)

// IncidentCategories lists every valid incident category.
var IncidentCategories = []string{
	IncidentCategorySafety,
	IncidentCategoryHarassment,
	IncidentCategoryProperty,
	IncidentCategoryOther,
}

// IncidentStatuses lists every valid incident status.
var IncidentStatuses = []string{
	IncidentStatusOpen,
	IncidentStatusReviewed,
	IncidentStatusResolved,
	IncidentStatusDismissed,
}

// Incident is a safety or conduct report filed by one side of a booking
// about the other. The booking anchors the report to a real shared ride.
type Incident struct {
	gorm.Model
	ReporterID     uint `json:"reporterID" gorm:"index"`
	ReportedUserID uint `json:"reportedUserID" gorm:"index"`
	RideID         uint `json:"rideID" gorm:"index"`
	BookingID      uint `json:"bookingID" gorm:"index"`

	Category    string `json:"category" gorm:"type:varchar(50)"`
	Description string `json:"description" gorm:"type:varchar(2000)"`
	Status      string `json:"status" gorm:"type:varchar(20);default:open;index"`

	// Visible only through the admin endpoints.
	AdminNotes string `json:"-" gorm:"type:varchar(2000)"`

	Reporter     User              `json:"reporter,omitempty" gorm:"foreignKey:ReporterID;references:ID"`
	ReportedUser User              `json:"reportedUser,omitempty" gorm:"foreignKey:ReportedUserID;references:ID"`
	Ride         Ride              `json:"ride,omitempty" gorm:"foreignKey:RideID;references:ID"`
	Comments     []IncidentComment `json:"comments,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// IsTerminal reports whether the incident is closed to non-admin comments.
func (i *Incident) IsTerminal() bool {
	return i.Status == IncidentStatusResolved || i.Status == IncidentStatusDismissed
}
