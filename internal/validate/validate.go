// Package validate implements the field rules of the registration form as
// pure functions: the Khmer-script and digit keystroke filters, the live
// record-number formatter, and the submission-time checks.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"ysa-registration/internal/locations"
	"ysa-registration/internal/model"
)

// User-facing rejection messages. Each failing rule aborts the submission
// with exactly one of these.
const (
	MsgRequired     = "សូមបំពេញព័ត៌មានដែលតម្រូវទាំងអស់"
	MsgKhmerName    = "ឈ្មោះពេញត្រូវតែជាអក្សរខ្មែរប៉ុណ្ណោះ"
	MsgPhone        = "លេខទូរស័ព្ទមិនត្រឹមត្រូវ៖ ត្រូវចាប់ផ្តើមដោយ 0 និងមាន ៨ ដល់ ១០ ខ្ទង់"
	MsgRecordNumber = "លេខកូដសមាជិកត្រូវតែមាន ១១ តួអក្សរឡាតាំង ឬលេខ (ឧ. 000-1234-5678)"
	MsgWard         = "វួដ ឬសាខាមិនត្រូវគ្នានឹងស្តេក/មណ្ឌលដែលបានជ្រើសរើស"
	MsgOtherReason  = "សូមបញ្ជាក់ហេតុផល"
	MsgMediaConsent = "ត្រូវការការយល់ព្រមក្នុងការថតរូប និងវីដេអូ"
)

// Error is a validation failure: the offending field plus the Khmer message
// shown inline to the registrant.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fail(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Bounds is the inclusive year range allowed for the date of birth.
type Bounds struct {
	MinYear int
	MaxYear int
}

// DOBMessage is the rejection message for a date of birth outside b.
func (b Bounds) DOBMessage() string {
	return fmt.Sprintf("ឆ្នាំកំណើតត្រូវតែនៅចន្លោះ %d ដល់ %d", b.MinYear, b.MaxYear)
}

var phonePattern = regexp.MustCompile(`^0\d{7,9}$`)

// FilterKhmer drops every rune outside the Khmer Unicode block (U+1780 to
// U+17FF) and whitespace. It backs the keystroke filter on the full-name
// input: a keystroke producing a disallowed rune leaves the value unchanged.
func FilterKhmer(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 0x1780 && r <= 0x17FF) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsKhmer reports whether s contains only Khmer-block runes and whitespace.
func IsKhmer(s string) bool {
	return FilterKhmer(s) == s
}

// FilterPhone keeps only digits and spaces, the keystroke filter on the
// phone input.
func FilterPhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone strips spaces, producing the stored form.
func NormalizePhone(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// ValidPhone reports whether the normalized phone matches the required
// leading-zero 8-10 digit shape.
func ValidPhone(normalized string) bool {
	return phonePattern.MatchString(normalized)
}

// StripRecordNumber removes separator characters and uppercases, leaving
// only the significant [A-Z0-9] characters of a membership code.
func StripRecordNumber(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatRecordNumber is the live input formatter: it uppercases, drops
// separators, caps at 11 significant characters, and regroups as 3-4-4 with
// dashes (for example "0001234 5678" becomes "000-1234-5678").
func FormatRecordNumber(s string) string {
	stripped := StripRecordNumber(s)
	if len(stripped) > 11 {
		stripped = stripped[:11]
	}
	switch {
	case len(stripped) <= 3:
		return stripped
	case len(stripped) <= 7:
		return stripped[:3] + "-" + stripped[3:]
	default:
		return stripped[:3] + "-" + stripped[3:7] + "-" + stripped[7:]
	}
}

// ValidRecordNumber reports whether the stripped code is exactly 11
// characters. Callers pass the output of StripRecordNumber.
func ValidRecordNumber(stripped string) bool {
	return len(stripped) == 11
}

// Registration checks a submission against every field rule and returns the
// normalized record ready for duplicate checking and persistence, or the
// first failing rule's *Error.
//
// The dated rules run in a fixed order, date then phone then membership
// code; the first failure wins and later rules are not evaluated.
func Registration(req model.SubmitRequest, b Bounds) (model.Registration, *Error) {
	reg := model.Registration{
		FullName:      req.FullName,
		EnglishName:   req.EnglishName,
		DOB:           strings.TrimSpace(req.DOB),
		Gender:        req.Gender,
		TShirtSize:    req.TShirtSize,
		PhoneNumber:   NormalizePhone(req.PhoneNumber),
		Stake:         req.Stake,
		Ward:          req.Ward,
		RecordNumber:  FormatRecordNumber(req.RecordNumber),
		MediaConsent:  req.MediaConsent,
		PaymentStatus: req.PaymentStatus,
		OtherReason:   strings.TrimSpace(req.OtherReason),
	}
	reg = reg.TrimNames()

	if reg.FullName == "" || reg.EnglishName == "" || reg.DOB == "" ||
		reg.Gender == "" || reg.TShirtSize == "" || reg.PhoneNumber == "" ||
		reg.Stake == "" || reg.Ward == "" || reg.PaymentStatus == "" {
		return reg, fail("form", MsgRequired)
	}
	if !model.ValidGender(reg.Gender) {
		return reg, fail("gender", MsgRequired)
	}
	if !model.ValidTShirtSize(reg.TShirtSize) {
		return reg, fail("tShirtSize", MsgRequired)
	}
	if !IsKhmer(reg.FullName) {
		return reg, fail("fullName", MsgKhmerName)
	}

	if year := reg.DOBYear(); year < b.MinYear || year > b.MaxYear {
		return reg, fail("dob", b.DOBMessage())
	}

	if !ValidPhone(reg.PhoneNumber) {
		return reg, fail("phoneNumber", MsgPhone)
	}

	if strip := StripRecordNumber(req.RecordNumber); strip != "" && !ValidRecordNumber(strip) {
		return reg, fail("recordNumber", MsgRecordNumber)
	}
	if StripRecordNumber(req.RecordNumber) == "" {
		reg.RecordNumber = ""
	}

	if !locations.ValidStake(reg.Stake) || !locations.ValidWard(reg.Stake, reg.Ward) {
		return reg, fail("ward", MsgWard)
	}

	if !model.ValidPaymentStatus(reg.PaymentStatus) {
		return reg, fail("paymentStatus", MsgRequired)
	}
	if reg.PaymentStatus == model.PaymentOther && reg.OtherReason == "" {
		return reg, fail("otherReason", MsgOtherReason)
	}
	if reg.PaymentStatus != model.PaymentOther {
		reg.OtherReason = ""
	}

	if !reg.MediaConsent {
		return reg, fail("mediaConsent", MsgMediaConsent)
	}

	return reg, nil
}
