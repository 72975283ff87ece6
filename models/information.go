package models

import "time"

// Information categories. Contact-style categories additionally carry a
// phone number.
var InformationCategories = []string{
	"agent",
	"tour_recipient",
	"transfer_recipient",
	"tour_type",
	"transfer_type",
	"place",
}

var phoneCategories = map[string]bool{
	"agent":              true,
	"tour_recipient":     true,
	"transfer_recipient": true,
	"place":              true,
}

// CategorySupportsPhone reports whether items of the category carry a phone.
func CategorySupportsPhone(category string) bool {
	return phoneCategories[category]
}

func validCategory(category string) bool {
	for _, c := range InformationCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Information is one lookup value used across the booking forms.
// Deactivation is a soft delete: the row stays but drops out of listings.
type Information struct {
	ID          int       `json:"id"`
	Category    string    `json:"category"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	Phone       string    `json:"phone,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InformationInput is used for creating/updating lookup values.
type InformationInput struct {
	Category    string `json:"category"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
}

func (i *InformationInput) Validate() string {
	if !validCategory(i.Category) {
		return "category must be one of: agent, tour_recipient, transfer_recipient, tour_type, transfer_type, place"
	}
	if i.Value == "" {
		return "value is required"
	}
	if i.Phone != "" && !CategorySupportsPhone(i.Category) {
		return "phone is not supported for this category"
	}
	return ""
}
