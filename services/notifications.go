package services

import (
	"fmt"
	"log"

	"github.com/butcherthacker/FareShare/models"
	"github.com/butcherthacker/FareShare/storage"
)

// NotificationService persists in-app notification records. Callers fire it
// with `go`; failures are logged and never surface to the request that
// triggered them. Delivery to devices is a client concern, the server only
// keeps the feed.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (ns *NotificationService) notify(userID uint, nType, title, message, refType string, refID uint) {
	notification := models.Notification{
		UserID:  userID,
		Type:    nType,
		Title:   title,
		Message: message,
		RefType: refType,
		RefID:   refID,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("failed to persist notification for user %d: %v", userID, err)
	}
}

// SendBookingCreatedNotificationToDriver tells a driver that seats were
// reserved on their ride.
func (ns *NotificationService) SendBookingCreatedNotificationToDriver(booking *models.Booking, ride *models.Ride, passengerName string) {
	title := "New Booking"
	message := fmt.Sprintf("%s reserved %d seat(s) on your ride to %s", passengerName, booking.SeatsReserved, ride.DestinationLabel)
	ns.notify(ride.DriverID, "booking_created", title, message, "booking", booking.ID)
}

// SendBookingStatusNotificationToPassenger tells a passenger their booking
// moved to a new status.
func (ns *NotificationService) SendBookingStatusNotificationToPassenger(booking *models.Booking, ride *models.Ride) {
	var title, message string
	switch booking.Status {
	case models.BookingStatusConfirmed:
		title = "Booking Confirmed"
		message = fmt.Sprintf("Your booking for the ride to %s was confirmed", ride.DestinationLabel)
	case models.BookingStatusCompleted:
		title = "Ride Completed"
		message = fmt.Sprintf("Your ride to %s is complete", ride.DestinationLabel)
	case models.BookingStatusCancelled:
		title = "Booking Cancelled"
		message = fmt.Sprintf("Your booking for the ride to %s was cancelled", ride.DestinationLabel)
	default:
		return
	}
	ns.notify(booking.PassengerID, "booking_status", title, message, "booking", booking.ID)
}

// SendRideCancelledNotificationToPassengers tells everyone who was holding an
// active booking that the ride is off. The passenger set is captured by the
// caller before the cancellation cascades, so passengers who had already
// cancelled on their own are not included.
func (ns *NotificationService) SendRideCancelledNotificationToPassengers(ride *models.Ride, passengerIDs []uint) {
	title := "Ride Cancelled"
	message := fmt.Sprintf("The ride to %s on %s was cancelled by the driver", ride.DestinationLabel, ride.DepartureTime.Format("Jan 2 15:04"))
	for _, passengerID := range passengerIDs {
		ns.notify(passengerID, "ride_cancelled", title, message, "ride", ride.ID)
	}
}

// SendMessageNotificationToUser tells a user someone sent them a message.
func (ns *NotificationService) SendMessageNotificationToUser(recipientID, messageID uint, senderName string) {
	title := "New Message"
	message := fmt.Sprintf("%s sent you a message", senderName)
	ns.notify(recipientID, "message_received", title, message, "message", messageID)
}

// SendIncidentStatusNotificationToReporter tells a reporter their incident
// report moved to a new status.
func (ns *NotificationService) SendIncidentStatusNotificationToReporter(incident *models.Incident) {
	title := "Incident Report Updated"
	message := fmt.Sprintf("Your incident report is now %s", incident.Status)
	ns.notify(incident.ReporterID, "incident_status", title, message, "incident", incident.ID)
}

// Global notification service instance
var NotificationServiceInstance = NewNotificationService()
