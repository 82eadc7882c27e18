package domain

import "fmt"

type statusCopy struct {
	title    string
	customer string
	provider string
}

var copyByStatus = map[string]statusCopy{
	"pending": {
		title:    "Booking placed",
		customer: "Your repair booking has been placed and is waiting for the provider to confirm.",
		provider: "You have a new repair booking waiting for confirmation.",
	},
	"confirmed": {
		title:    "Booking confirmed",
		customer: "Your repair booking has been confirmed by the provider.",
		provider: "You confirmed the booking. Be ready at the appointment time.",
	},
	"in_progress": {
		title:    "Repair in progress",
		customer: "The provider has started working on your device.",
		provider: "The booking is now marked as in progress.",
	},
	"pending_cod_collection": {
		title:    "Awaiting cash payment",
		customer: "Your repair is done. Please pay the provider in cash to complete the booking.",
		provider: "Collect the cash payment from the customer to complete the booking.",
	},
	"completed": {
		title:    "Repair completed",
		customer: "Your repair is complete. Thank you for using fixdesk, please rate your provider.",
		provider: "The booking is complete. Any commission due will appear in your ledger.",
	},
	"cancelled": {
		title:    "Booking cancelled",
		customer: "Your repair booking has been cancelled.",
		provider: "The booking has been cancelled.",
	},
	"disputed": {
		title:    "Booking under dispute",
		customer: "Your booking is under dispute. Our support team will contact you.",
		provider: "A dispute was raised on this booking. Our support team will contact you.",
	},
}

// StatusMessage returns the feed title and text for a booking that moved to status.
func StatusMessage(status string, audience Audience) (string, string) {
	c, ok := copyByStatus[status]
	if !ok {
		msg := fmt.Sprintf("Your booking status was updated to %s.", status)
		return "Booking status updated", msg
	}
	if audience == AudienceProvider {
		return c.title, c.provider
	}
	return c.title, c.customer
}
