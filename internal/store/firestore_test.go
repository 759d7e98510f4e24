package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ysa-registration/internal/model"
)

func testRegistration() model.Registration {
	return model.Registration{
		FullName:      "សុខ សុភា",
		EnglishName:   "Sok Sophea",
		DOB:           "1999-04-17",
		Gender:        model.GenderFemale,
		TShirtSize:    "M",
		PhoneNumber:   "012345678",
		Stake:         "ស្តេកខាងត្បូង",
		Ward:          "វួដទួលទំពូង",
		RecordNumber:  "000-1234-5678",
		MediaConsent:  true,
		PaymentStatus: model.PaymentAgree,
		Timestamp:     time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestFirestoreNotConfigured(t *testing.T) {
	fs := NewFirestore("", "", "", zap.NewNop())

	_, err := fs.InsertRegistration(context.Background(), testRegistration())
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = fs.ListRegistrations(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestFirestoreInsertRegistration(t *testing.T) {
	var gotPath string
	var gotDoc fsDocument

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotDoc))
		created := gotDoc
		created.Name = "projects/p/databases/(default)/documents/ysa_registrations/abc123"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(created))
	}))
	defer srv.Close()

	fs := NewFirestore("p", "test-key", srv.URL, zap.NewNop())
	reg, err := fs.InsertRegistration(context.Background(), testRegistration())
	require.NoError(t, err)
	require.Equal(t, "abc123", reg.ID)
	require.Equal(t, "/projects/p/databases/(default)/documents/ysa_registrations", gotPath)
	require.Equal(t, "សុខ សុភា", gotDoc.Fields["fullName"].str())
	require.True(t, gotDoc.Fields["mediaConsent"].boolean())
}

func TestFirestorePermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	fs := NewFirestore("p", "test-key", srv.URL, zap.NewNop())
	_, err := fs.InsertRegistration(context.Background(), testRegistration())
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.True(t, Fallbackable(err))

	err = fs.DeleteRegistration(context.Background(), "abc123")
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFirestoreFindByNamePair(t *testing.T) {
	var gotQuery runQueryRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/projects/p/databases/(default)/documents:runQuery", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))
		doc := encodeRegistration(testRegistration())
		doc.Name = "projects/p/databases/(default)/documents/ysa_registrations/match1"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode([]runQueryResult{{Document: &doc}}))
	}))
	defer srv.Close()

	fs := NewFirestore("p", "test-key", srv.URL, zap.NewNop())
	reg, err := fs.FindByNamePair(context.Background(), "សុខ សុភា", "Sok Sophea")
	require.NoError(t, err)
	require.NotNil(t, reg)
	require.Equal(t, "match1", reg.ID)
	require.Equal(t, "Sok Sophea", reg.EnglishName)

	// Both name fields must be in the composite filter.
	where, _ := json.Marshal(gotQuery.StructuredQuery["where"])
	require.Contains(t, string(where), "fullName")
	require.Contains(t, string(where), "englishName")
}

func TestFirestoreFindNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Firestore answers a query with no matches with one result that has
		// no document.
		_, _ = w.Write([]byte(`[{"readTime":"2025-11-20T10:00:00Z"}]`))
	}))
	defer srv.Close()

	fs := NewFirestore("p", "test-key", srv.URL, zap.NewNop())
	reg, err := fs.FindByRecordNumber(context.Background(), "000-1234-5678")
	require.NoError(t, err)
	require.Nil(t, reg)
}

func TestRegistrationDocumentRoundTrip(t *testing.T) {
	want := testRegistration()
	doc := encodeRegistration(want)
	doc.Name = "projects/p/databases/(default)/documents/ysa_registrations/id9"
	got := decodeRegistration(doc)
	want.ID = "id9"
	require.Equal(t, want, got)
}

func TestUserDocumentRoundTrip(t *testing.T) {
	want := model.SystemUser{
		Username:  "staff1",
		Password:  "secret",
		Role:      model.RoleViewer,
		CreatedAt: time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC),
	}
	doc := encodeUser(want)
	doc.Name = "projects/p/databases/(default)/documents/ysa_users/u1"
	got := decodeUser(doc)
	want.ID = "u1"
	require.Equal(t, want, got)
}
