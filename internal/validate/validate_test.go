package validate

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"ysa-registration/internal/model"
)

var testBounds = Bounds{MinYear: 1990, MaxYear: 2007}

// validRequest returns a submission that passes every rule.
func validRequest() model.SubmitRequest {
	return model.SubmitRequest{
		FullName:      "សុខ សុភា",
		EnglishName:   "Sok Sophea",
		DOB:           "1999-04-17",
		Gender:        model.GenderFemale,
		TShirtSize:    "M",
		PhoneNumber:   "012 345 678",
		Stake:         "ស្តេកខាងត្បូង",
		Ward:          "វួដទួលទំពូង",
		RecordNumber:  "000-1234-5678",
		MediaConsent:  true,
		PaymentStatus: model.PaymentAgree,
	}
}

func TestFilterKhmer(t *testing.T) {
	// Whitespace runes pass through untouched, so the spaces around the
	// dropped Latin word both survive.
	require.Equal(t, "សុខ  សុភា", FilterKhmer("សុខ Sok សុភា123"))
	require.Equal(t, "សុខ សុភា", FilterKhmer("សុខ សុភា"))
	require.Equal(t, "", FilterKhmer("abc-123"))
	require.True(t, IsKhmer("សុខ សុភា"))
	require.False(t, IsKhmer("សុខ S"))
}

func TestFilterPhone(t *testing.T) {
	require.Equal(t, "012 345 678", FilterPhone("012 345 678"))
	require.Equal(t, "012345678", FilterPhone("+012-345-678x"))
}

func TestFormatRecordNumber(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"00", "00"},
		{"000", "000"},
		{"0001", "000-1"},
		{"0001234", "000-1234"},
		{"00012345", "000-1234-5"},
		{"00012345678", "000-1234-5678"},
		{"000-1234-5678", "000-1234-5678"},
		{"abc1234defg", "ABC-1234-DEFG"},
		{"00012345678999", "000-1234-5678"}, // capped at 11 significant chars
		{"000 1234 5678", "000-1234-5678"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, FormatRecordNumber(c.in), "input %q", c.in)
	}
}

func TestRegistrationValid(t *testing.T) {
	reg, verr := Registration(validRequest(), testBounds)
	require.Nil(t, verr)
	require.Equal(t, "012345678", reg.PhoneNumber)
	require.Equal(t, "000-1234-5678", reg.RecordNumber)
	require.Equal(t, "សុខ សុភា", reg.FullName)
}

func TestRegistrationTrimsNames(t *testing.T) {
	req := validRequest()
	req.FullName = "  សុខ សុភា  "
	req.EnglishName = " Sok Sophea "
	reg, verr := Registration(req, testBounds)
	require.Nil(t, verr)
	require.Equal(t, "សុខ សុភា", reg.FullName)
	require.Equal(t, "Sok Sophea", reg.EnglishName)
}

func TestRegistrationRejectsNonKhmerName(t *testing.T) {
	req := validRequest()
	req.FullName = "Sok Sophea"
	_, verr := Registration(req, testBounds)
	require.NotNil(t, verr)
	require.Equal(t, "fullName", verr.Field)
	require.Equal(t, MsgKhmerName, verr.Message)
}

func TestRegistrationDOBRange(t *testing.T) {
	for _, dob := range []string{"1989-12-31", "2008-01-01", "not-a-date"} {
		req := validRequest()
		req.DOB = dob
		_, verr := Registration(req, testBounds)
		require.NotNil(t, verr, "dob %q", dob)
		require.Equal(t, "dob", verr.Field)
		require.Equal(t, testBounds.DOBMessage(), verr.Message)
	}
	for _, dob := range []string{"1990-01-01", "2007-12-31"} {
		req := validRequest()
		req.DOB = dob
		_, verr := Registration(req, testBounds)
		require.Nil(t, verr, "dob %q", dob)
	}
}

func TestRegistrationPhoneShape(t *testing.T) {
	bad := []string{"12345678", "0123456", "01234567890", "0123a5678"}
	for _, p := range bad {
		req := validRequest()
		req.PhoneNumber = p
		_, verr := Registration(req, testBounds)
		require.NotNil(t, verr, "phone %q", p)
		require.Equal(t, MsgPhone, verr.Message)
	}
	// Spaces are stripped before the shape check.
	req := validRequest()
	req.PhoneNumber = "0 12 345 678"
	_, verr := Registration(req, testBounds)
	require.Nil(t, verr)
}

// The first failing rule wins: a bad date and bad phone in the same
// submission report the date message, never the phone one.
func TestRegistrationFixedOrder(t *testing.T) {
	req := validRequest()
	req.DOB = "1950-01-01"
	req.PhoneNumber = "999"
	req.RecordNumber = "123"
	_, verr := Registration(req, testBounds)
	require.NotNil(t, verr)
	require.Equal(t, "dob", verr.Field)

	req.DOB = "1999-01-01"
	_, verr = Registration(req, testBounds)
	require.NotNil(t, verr)
	require.Equal(t, "phoneNumber", verr.Field)

	req.PhoneNumber = "012345678"
	_, verr = Registration(req, testBounds)
	require.NotNil(t, verr)
	require.Equal(t, "recordNumber", verr.Field)
}

func TestRegistrationRecordNumberOptional(t *testing.T) {
	req := validRequest()
	req.RecordNumber = ""
	reg, verr := Registration(req, testBounds)
	require.Nil(t, verr)
	require.Equal(t, "", reg.RecordNumber)

	req.RecordNumber = "--- ---"
	reg, verr = Registration(req, testBounds)
	require.Nil(t, verr)
	require.Equal(t, "", reg.RecordNumber)
}

func TestRegistrationWardMustMatchStake(t *testing.T) {
	req := validRequest()
	req.Ward = "សាខាសៀមរាបទី១" // belongs to a different stake
	_, verr := Registration(req, testBounds)
	require.NotNil(t, verr)
	require.Equal(t, "ward", verr.Field)
	require.Equal(t, MsgWard, verr.Message)
}

func TestRegistrationOtherReasonConditional(t *testing.T) {
	req := validRequest()
	req.PaymentStatus = model.PaymentOther
	req.OtherReason = ""
	_, verr := Registration(req, testBounds)
	require.NotNil(t, verr)
	require.Equal(t, "otherReason", verr.Field)

	req.OtherReason = "នឹងបង់នៅពេលក្រោយ"
	_, verr = Registration(req, testBounds)
	require.Nil(t, verr)

	// otherReason is dropped when the status does not ask for it.
	req.PaymentStatus = model.PaymentAgree
	reg, verr := Registration(req, testBounds)
	require.Nil(t, verr)
	require.Equal(t, "", reg.OtherReason)
}

func TestRegistrationMediaConsentRequired(t *testing.T) {
	req := validRequest()
	req.MediaConsent = false
	_, verr := Registration(req, testBounds)
	require.NotNil(t, verr)
	require.Equal(t, "mediaConsent", verr.Field)
}

var (
	phoneShape  = regexp.MustCompile(`^0\d{7,9}$`)
	recordShape = regexp.MustCompile(`^[A-Z0-9]{3}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)
)

// Property: any submission that passes validation stores a phone matching
// ^0\d{7,9}$; any that does not match is rejected with the phone message.
func TestPhoneNormalizationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.StringMatching(`[0-9 ]{0,14}`).Draw(t, "phone")
		req := validRequest()
		req.PhoneNumber = raw
		if NormalizePhone(raw) == "" {
			// Empty after normalization trips the required-fields rule
			// before the shape rule.
			_, verr := Registration(req, testBounds)
			require.NotNil(t, verr)
			return
		}

		reg, verr := Registration(req, testBounds)
		if verr == nil {
			require.True(t, phoneShape.MatchString(reg.PhoneNumber))
		} else {
			require.Equal(t, MsgPhone, verr.Message)
			require.False(t, phoneShape.MatchString(NormalizePhone(raw)))
		}
	})
}

// Property: the stored membership code is empty or exactly XXX-XXXX-XXXX.
func TestRecordNumberProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.StringMatching(`[a-zA-Z0-9 -]{0,16}`).Draw(t, "record")
		req := validRequest()
		req.RecordNumber = raw

		reg, verr := Registration(req, testBounds)
		if verr != nil {
			require.Equal(t, MsgRecordNumber, verr.Message)
			return
		}
		if reg.RecordNumber != "" {
			require.True(t, recordShape.MatchString(reg.RecordNumber),
				"stored form %q", reg.RecordNumber)
		}
	})
}

// Property: a submission is accepted exactly when the dob year is in range.
func TestDOBBoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		year := rapid.IntRange(1900, 2030).Draw(t, "year")
		req := validRequest()
		req.DOB = time.Date(year, 6, 15, 0, 0, 0, 0, time.UTC).Format("2006-01-02")

		_, verr := Registration(req, testBounds)
		inRange := year >= testBounds.MinYear && year <= testBounds.MaxYear
		if inRange {
			require.Nil(t, verr)
		} else {
			require.NotNil(t, verr)
			require.Equal(t, testBounds.DOBMessage(), verr.Message)
		}
	})
}
