package domain

import (
	"math"
	"strings"
)

func ParseStatus(field, value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		allowed := make([]string, 0, len(statuses))
		for _, s := range statuses {
			allowed = append(allowed, string(s))
		}
		return "", invalidEnum(field, value, allowed...)
	}
	return status, nil
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusRefunded:
		return status, nil
	}
	return "", invalidEnum("payment_status", value,
		string(PaymentStatusPending), string(PaymentStatusCompleted), string(PaymentStatusRefunded))
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	switch method {
	case PaymentMethodOnline, PaymentMethodCOD:
		return method, nil
	}
	return "", invalidEnum("payment_method", value, string(PaymentMethodOnline), string(PaymentMethodCOD))
}

func ParsePartQuality(value string) (PartQuality, error) {
	quality := PartQuality(strings.ToLower(strings.TrimSpace(value)))
	switch quality {
	case PartQualityOriginal, PartQualityHighQuality, PartQualityStandard:
		return quality, nil
	}
	return "", invalidEnum("part_quality", value,
		string(PartQualityOriginal), string(PartQualityHighQuality), string(PartQualityStandard))
}

func ParseLocationType(value string) (LocationType, error) {
	location := LocationType(strings.ToLower(strings.TrimSpace(value)))
	switch location {
	case LocationTypeDoorstep, LocationTypeProviderLocation:
		return location, nil
	}
	return "", invalidEnum("location_type", value, string(LocationTypeDoorstep), string(LocationTypeProviderLocation))
}

func ParseServiceMode(value string) (ServiceMode, error) {
	mode := ServiceMode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case ServiceModeDoorstep, ServiceModePickupDrop, ServiceModeWalkIn:
		return mode, nil
	}
	return "", invalidEnum("service_mode", value,
		string(ServiceModeDoorstep), string(ServiceModePickupDrop), string(ServiceModeWalkIn))
}

// ValidateRating accepts any finite number in [0, 5].
func ValidateRating(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value > 5 {
		return NewValidationError("rating", "out_of_range", "rating must be a number between 0 and 5")
	}
	return nil
}

// MissingField reports a required field that was not supplied.
func MissingField(field string) error {
	return missingField(field)
}
