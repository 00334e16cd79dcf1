package models

import "gorm.io/gorm"

type Review struct {
	gorm.Model
	RideID       uint   `json:"rideID" gorm:"index"`
	AuthorID     uint   `json:"authorID" gorm:"index"`
	TargetUserID uint   `json:"targetUserID" gorm:"index"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment" gorm:"type:varchar(1000)"`

	Ride   Ride `json:"ride,omitempty" gorm:"foreignKey:RideID;references:ID"`
	Author User `json:"author,omitempty" gorm:"foreignKey:AuthorID;references:ID"`
}
