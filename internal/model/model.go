// Package model defines the core domain types for the YSA Cambodia
// registration system.
package model

import (
	"strings"
	"time"
)

// Gender labels as they appear on the form and in stored records.
const (
	GenderMale   = "ប្រុស"
	GenderFemale = "ស្រី"
)

// TShirtSizes is the fixed set of sizes offered on the form.
var TShirtSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

// Payment status values.
const (
	PaymentAgree         = "agree"
	PaymentNotAffordable = "not_affordable"
	PaymentOther         = "other"
)

// Roles for dashboard access. Admin unlocks edit, delete, and user
// management; viewer is read-only.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Registration represents one person's submission.
//
// ID is assigned at persistence time (by the remote store, or minted locally
// when the write degraded to the fallback cache) and is empty before that.
// Timestamp is set once at creation and never changes afterwards.
type Registration struct {
	ID            string    `json:"id,omitempty"`
	FullName      string    `json:"fullName"`    // Khmer script only
	EnglishName   string    `json:"englishName"` // free text
	DOB           string    `json:"dob"`         // YYYY-MM-DD, year bounded by config
	Gender        string    `json:"gender"`
	TShirtSize    string    `json:"tShirtSize"`
	PhoneNumber   string    `json:"phoneNumber"`  // leading-zero, 8-10 digits after normalization
	Stake         string    `json:"stake"`        // key into the locations table
	Ward          string    `json:"ward"`         // must belong to locations[stake]
	RecordNumber  string    `json:"recordNumber"` // optional, XXX-XXXX-XXXX when present
	MediaConsent  bool      `json:"mediaConsent"`
	PaymentStatus string    `json:"paymentStatus"`
	OtherReason   string    `json:"otherReason,omitempty"`
	IsPaid        bool      `json:"isPaid"`
	Timestamp     time.Time `json:"timestamp"`
}

// TrimNames returns a copy with both name fields trimmed, the form in which
// names are stored and compared.
func (r Registration) TrimNames() Registration {
	r.FullName = strings.TrimSpace(r.FullName)
	r.EnglishName = strings.TrimSpace(r.EnglishName)
	return r
}

// SameNamePair reports whether another registration carries the same trimmed
// (fullName, englishName) pair. Comparison is case-sensitive and exact.
func (r Registration) SameNamePair(other Registration) bool {
	return strings.TrimSpace(r.FullName) == strings.TrimSpace(other.FullName) &&
		strings.TrimSpace(r.EnglishName) == strings.TrimSpace(other.EnglishName)
}

// DOBYear returns the year component of the date of birth, or 0 when the
// value does not parse as a date.
func (r Registration) DOBYear() int {
	t, err := time.Parse("2006-01-02", r.DOB)
	if err != nil {
		return 0
	}
	return t.Year()
}

// SystemUser is an admin-managed dashboard login, distinct from the two
// hardcoded master accounts. Users are created and deleted, never edited in
// place.
type SystemUser struct {
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username"`
	Password  string    `json:"password"` // stored and compared as plain text
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// SubmitRequest is the payload of the public registration form.
type SubmitRequest struct {
	FullName      string `json:"fullName"`
	EnglishName   string `json:"englishName"`
	DOB           string `json:"dob"`
	Gender        string `json:"gender"`
	TShirtSize    string `json:"tShirtSize"`
	PhoneNumber   string `json:"phoneNumber"`
	Stake         string `json:"stake"`
	Ward          string `json:"ward"`
	RecordNumber  string `json:"recordNumber"`
	MediaConsent  bool   `json:"mediaConsent"`
	PaymentStatus string `json:"paymentStatus"`
	OtherReason   string `json:"otherReason"`
}

// LoginRequest is the payload for dashboard login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserRequest is the admin payload for creating a SystemUser.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// StatusResponse reports whether registration is open for a page load.
type StatusResponse struct {
	Open     bool `json:"open"`
	Count    int  `json:"count"`
	Capacity int  `json:"capacity"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidGender reports whether g is one of the two form labels.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

// ValidTShirtSize reports whether s is one of the offered sizes.
func ValidTShirtSize(s string) bool {
	for _, size := range TShirtSizes {
		if s == size {
			return true
		}
	}
	return false
}

// ValidPaymentStatus reports whether p is a known payment status.
func ValidPaymentStatus(p string) bool {
	return p == PaymentAgree || p == PaymentNotAffordable || p == PaymentOther
}

// ValidRole reports whether role is a known dashboard role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleViewer
}
