package models

import "gorm.io/gorm"

type Message struct {
	gorm.Model
	SenderID    uint   `json:"senderID" gorm:"index"`
	RecipientID uint   `json:"recipientID" gorm:"index"`
	Body        string `json:"body" gorm:"type:varchar(500)"`

	// Optional ride context so the client can show which trip the
	// conversation is about.
	RideID *uint `json:"rideID" gorm:"index"`

	Sender    User  `json:"sender,omitempty" gorm:"foreignKey:SenderID;references:ID"`
	Recipient User  `json:"recipient,omitempty" gorm:"foreignKey:RecipientID;references:ID"`
	Ride      *Ride `json:"ride,omitempty" gorm:"foreignKey:RideID;references:ID"`
}
