package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" gorm:"uniqueIndex"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"-"`
	AvatarURL   string `json:"avatarURL"`
	Bio         string `json:"bio"`

	// Rating aggregate maintained by the reviews routes
	RatingAvg   float64 `json:"ratingAvg" gorm:"default:0"`
	RatingCount int     `json:"ratingCount" gorm:"default:0"`

	// Default vehicle used to prefill ride offers
	VehicleMake  string `json:"vehicleMake"`
	VehicleModel string `json:"vehicleModel"`
	VehicleColor string `json:"vehicleColor"`
	VehicleYear  int    `json:"vehicleYear"`

	PushTokens datatypes.JSON `json:"pushTokens"`
	IsActive   *bool          `json:"isActive" gorm:"default:true"`
	Role       string         `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin

	Rides    []Ride    `json:"rides,omitempty" gorm:"foreignKey:DriverID;references:ID"`
	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:PassengerID;references:ID"`
}

// FullName joins first and last name for notification and review text.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Custom JSON marshaling so PushTokens comes back as an array instead of raw bytes
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		PushTokens []string `json:"pushTokens,omitempty"`
		Rides      []Ride   `json:"rides,omitempty"`
		*Alias
	}{
		PushTokens: []string{},
		Alias:      (*Alias)(u),
	}

	if u.PushTokens != nil {
		var tokens []string
		if err := json.Unmarshal(u.PushTokens, &tokens); err == nil {
			aux.PushTokens = tokens
		}
	}

	// Rides are excluded to prevent circular references through Ride.Driver
	aux.Rides = nil

	return json.Marshal(aux)
}
