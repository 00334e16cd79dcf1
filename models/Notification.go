package models

import "gorm.io/gorm"

type Notification struct {
	gorm.Model
	UserID  uint   `json:"userID" gorm:"index"`
	Type    string `json:"type"` // booking_created, booking_status, ride_cancelled, ride_completed
	Title   string `json:"title"`
	Message string `json:"message"`
	RefType string `json:"refType"` // ride, booking
	RefID   uint   `json:"refID"`
	IsRead  bool   `json:"isRead" gorm:"default:false"`
}
