package models

import "gorm.io/gorm"

type IncidentComment struct {
	gorm.Model
	IncidentID uint   `json:"incidentID" gorm:"index"`
	AuthorID   uint   `json:"authorID" gorm:"index"`
	Body       string `json:"body" gorm:"type:varchar(2000)"`
	IsAdmin    bool   `json:"isAdmin" gorm:"default:false"`

	Author User `json:"author,omitempty" gorm:"foreignKey:AuthorID;references:ID"`
}
