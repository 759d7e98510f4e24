package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"ysa-registration/internal/model"
)

// Firestore collection names. Existing deployments already hold data under
// these, so they must not change.
const (
	collRegistrations = "ysa_registrations"
	collUsers         = "ysa_users"
)

const firestoreBaseURL = "https://firestore.googleapis.com/v1"

// Firestore talks to the hosted document database over its REST v1 surface.
// A zero project ID marks the store as not configured: every call returns
// ErrNotConfigured and the caller degrades to the local cache.
type Firestore struct {
	http      *resty.Client
	projectID string
	apiKey    string
	logger    *zap.Logger
}

// NewFirestore builds the client. baseURL overrides the Google endpoint and
// exists for tests; pass "" for the real service.
func NewFirestore(projectID, apiKey, baseURL string, logger *zap.Logger) *Firestore {
	if baseURL == "" {
		baseURL = firestoreBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Firestore{http: client, projectID: projectID, apiKey: apiKey, logger: logger}
}

func (f *Firestore) configured() bool { return f.projectID != "" }

func (f *Firestore) docsPath() string {
	return fmt.Sprintf("/projects/%s/databases/(default)/documents", f.projectID)
}

// ── Wire types ───────────────────────────────────────────────────────────────

type fsValue struct {
	StringValue    *string `json:"stringValue,omitempty"`
	BooleanValue   *bool   `json:"booleanValue,omitempty"`
	TimestampValue *string `json:"timestampValue,omitempty"`
}

func strValue(s string) fsValue { return fsValue{StringValue: &s} }
func boolValue(b bool) fsValue  { return fsValue{BooleanValue: &b} }

func timeValue(t time.Time) fsValue {
	s := t.UTC().Format(time.RFC3339Nano)
	return fsValue{TimestampValue: &s}
}

func (v fsValue) str() string {
	if v.StringValue != nil {
		return *v.StringValue
	}
	return ""
}

func (v fsValue) boolean() bool {
	return v.BooleanValue != nil && *v.BooleanValue
}

func (v fsValue) timestamp() time.Time {
	if v.TimestampValue == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
	if err != nil {
		return time.Time{}
	}
	return t
}

type fsDocument struct {
	Name   string             `json:"name,omitempty"`
	Fields map[string]fsValue `json:"fields"`
}

// docID extracts the opaque document id from the full resource name.
func (d fsDocument) docID() string {
	idx := strings.LastIndex(d.Name, "/")
	if idx < 0 {
		return d.Name
	}
	return d.Name[idx+1:]
}

func encodeRegistration(reg model.Registration) fsDocument {
	return fsDocument{Fields: map[string]fsValue{
		"fullName":      strValue(reg.FullName),
		"englishName":   strValue(reg.EnglishName),
		"dob":           strValue(reg.DOB),
		"gender":        strValue(reg.Gender),
		"tShirtSize":    strValue(reg.TShirtSize),
		"phoneNumber":   strValue(reg.PhoneNumber),
		"stake":         strValue(reg.Stake),
		"ward":          strValue(reg.Ward),
		"recordNumber":  strValue(reg.RecordNumber),
		"mediaConsent":  boolValue(reg.MediaConsent),
		"paymentStatus": strValue(reg.PaymentStatus),
		"otherReason":   strValue(reg.OtherReason),
		"isPaid":        boolValue(reg.IsPaid),
		"timestamp":     timeValue(reg.Timestamp),
	}}
}

func decodeRegistration(d fsDocument) model.Registration {
	fields := d.Fields
	return model.Registration{
		ID:            d.docID(),
		FullName:      fields["fullName"].str(),
		EnglishName:   fields["englishName"].str(),
		DOB:           fields["dob"].str(),
		Gender:        fields["gender"].str(),
		TShirtSize:    fields["tShirtSize"].str(),
		PhoneNumber:   fields["phoneNumber"].str(),
		Stake:         fields["stake"].str(),
		Ward:          fields["ward"].str(),
		RecordNumber:  fields["recordNumber"].str(),
		MediaConsent:  fields["mediaConsent"].boolean(),
		PaymentStatus: fields["paymentStatus"].str(),
		OtherReason:   fields["otherReason"].str(),
		IsPaid:        fields["isPaid"].boolean(),
		Timestamp:     fields["timestamp"].timestamp(),
	}
}

func encodeUser(u model.SystemUser) fsDocument {
	return fsDocument{Fields: map[string]fsValue{
		"username":  strValue(u.Username),
		"password":  strValue(u.Password),
		"role":      strValue(u.Role),
		"createdAt": timeValue(u.CreatedAt),
	}}
}

func decodeUser(d fsDocument) model.SystemUser {
	return model.SystemUser{
		ID:        d.docID(),
		Username:  d.Fields["username"].str(),
		Password:  d.Fields["password"].str(),
		Role:      d.Fields["role"].str(),
		CreatedAt: d.Fields["createdAt"].timestamp(),
	}
}

// ── Query plumbing ───────────────────────────────────────────────────────────

type fieldFilter struct {
	Field string
	Value string
}

type runQueryRequest struct {
	StructuredQuery map[string]any `json:"structuredQuery"`
}

func buildQuery(collection string, filters []fieldFilter, orderDesc bool, limit int) runQueryRequest {
	q := map[string]any{
		"from": []map[string]any{{"collectionId": collection}},
	}
	if len(filters) == 1 {
		q["where"] = filterClause(filters[0])
	} else if len(filters) > 1 {
		clauses := make([]map[string]any, 0, len(filters))
		for _, f := range filters {
			clauses = append(clauses, filterClause(f))
		}
		q["where"] = map[string]any{
			"compositeFilter": map[string]any{"op": "AND", "filters": clauses},
		}
	}
	if orderDesc {
		q["orderBy"] = []map[string]any{{
			"field":     map[string]any{"fieldPath": "timestamp"},
			"direction": "DESCENDING",
		}}
	}
	if limit > 0 {
		q["limit"] = limit
	}
	return runQueryRequest{StructuredQuery: q}
}

func filterClause(f fieldFilter) map[string]any {
	return map[string]any{
		"fieldFilter": map[string]any{
			"field": map[string]any{"fieldPath": f.Field},
			"op":    "EQUAL",
			"value": map[string]any{"stringValue": f.Value},
		},
	}
}

type runQueryResult struct {
	Document *fsDocument `json:"document,omitempty"`
}

// classify maps a transport or HTTP failure onto the router's error classes.
func (f *Firestore) classify(resp *resty.Response, err error) error {
	if err != nil {
		f.logger.Warn("firestore request failed", zap.Error(err))
		return fmt.Errorf("firestore request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		f.logger.Warn("firestore error response",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.String("status", resp.Status()),
		)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("firestore: %s: %w", resp.Status(), ErrPermissionDenied)
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("firestore: unexpected status %s: %s", resp.Status(), resp.Body())
	}
}

func (f *Firestore) runQuery(ctx context.Context, req runQueryRequest) ([]fsDocument, error) {
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(req).
		Post(f.docsPath() + ":runQuery")
	if cerr := f.classify(resp, err); cerr != nil {
		return nil, cerr
	}
	var results []runQueryResult
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return nil, fmt.Errorf("firestore: decode query response: %w", err)
	}
	docs := make([]fsDocument, 0, len(results))
	for _, r := range results {
		if r.Document != nil {
			docs = append(docs, *r.Document)
		}
	}
	return docs, nil
}

// ── Registrations ────────────────────────────────────────────────────────────

func (f *Firestore) InsertRegistration(ctx context.Context, reg model.Registration) (model.Registration, error) {
	if !f.configured() {
		return model.Registration{}, ErrNotConfigured
	}
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(encodeRegistration(reg)).
		Post(f.docsPath() + "/" + collRegistrations)
	if cerr := f.classify(resp, err); cerr != nil {
		return model.Registration{}, cerr
	}
	var doc fsDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return model.Registration{}, fmt.Errorf("firestore: decode created document: %w", err)
	}
	reg.ID = doc.docID()
	return reg, nil
}

func (f *Firestore) UpdateRegistration(ctx context.Context, reg model.Registration) error {
	if !f.configured() {
		return ErrNotConfigured
	}
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(encodeRegistration(reg)).
		Patch(f.docsPath() + "/" + collRegistrations + "/" + reg.ID)
	return f.classify(resp, err)
}

func (f *Firestore) DeleteRegistration(ctx context.Context, id string) error {
	if !f.configured() {
		return ErrNotConfigured
	}
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		Delete(f.docsPath() + "/" + collRegistrations + "/" + id)
	return f.classify(resp, err)
}

func (f *Firestore) ListRegistrations(ctx context.Context) ([]model.Registration, error) {
	if !f.configured() {
		return nil, ErrNotConfigured
	}
	docs, err := f.runQuery(ctx, buildQuery(collRegistrations, nil, true, 0))
	if err != nil {
		return nil, err
	}
	regs := make([]model.Registration, 0, len(docs))
	for _, d := range docs {
		regs = append(regs, decodeRegistration(d))
	}
	return regs, nil
}

func (f *Firestore) FindByNamePair(ctx context.Context, fullName, englishName string) (*model.Registration, error) {
	if !f.configured() {
		return nil, ErrNotConfigured
	}
	docs, err := f.runQuery(ctx, buildQuery(collRegistrations, []fieldFilter{
		{Field: "fullName", Value: fullName},
		{Field: "englishName", Value: englishName},
	}, false, 1))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	reg := decodeRegistration(docs[0])
	return &reg, nil
}

func (f *Firestore) FindByRecordNumber(ctx context.Context, recordNumber string) (*model.Registration, error) {
	if !f.configured() {
		return nil, ErrNotConfigured
	}
	docs, err := f.runQuery(ctx, buildQuery(collRegistrations, []fieldFilter{
		{Field: "recordNumber", Value: recordNumber},
	}, false, 1))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	reg := decodeRegistration(docs[0])
	return &reg, nil
}

// ── Users ────────────────────────────────────────────────────────────────────

func (f *Firestore) InsertUser(ctx context.Context, u model.SystemUser) (model.SystemUser, error) {
	if !f.configured() {
		return model.SystemUser{}, ErrNotConfigured
	}
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(encodeUser(u)).
		Post(f.docsPath() + "/" + collUsers)
	if cerr := f.classify(resp, err); cerr != nil {
		return model.SystemUser{}, cerr
	}
	var doc fsDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return model.SystemUser{}, fmt.Errorf("firestore: decode created document: %w", err)
	}
	u.ID = doc.docID()
	return u, nil
}

func (f *Firestore) DeleteUser(ctx context.Context, id string) error {
	if !f.configured() {
		return ErrNotConfigured
	}
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		Delete(f.docsPath() + "/" + collUsers + "/" + id)
	return f.classify(resp, err)
}

func (f *Firestore) ListUsers(ctx context.Context) ([]model.SystemUser, error) {
	if !f.configured() {
		return nil, ErrNotConfigured
	}
	docs, err := f.runQuery(ctx, buildQuery(collUsers, nil, false, 0))
	if err != nil {
		return nil, err
	}
	users := make([]model.SystemUser, 0, len(docs))
	for _, d := range docs {
		users = append(users, decodeUser(d))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (f *Firestore) FindUserByUsername(ctx context.Context, username string) (*model.SystemUser, error) {
	if !f.configured() {
		return nil, ErrNotConfigured
	}
	docs, err := f.runQuery(ctx, buildQuery(collUsers, []fieldFilter{
		{Field: "username", Value: username},
	}, false, 1))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	u := decodeUser(docs[0])
	return &u, nil
}

func (f *Firestore) FindUserByCredentials(ctx context.Context, username, password string) (*model.SystemUser, error) {
	if !f.configured() {
		return nil, ErrNotConfigured
	}
	docs, err := f.runQuery(ctx, buildQuery(collUsers, []fieldFilter{
		{Field: "username", Value: username},
		{Field: "password", Value: password},
	}, false, 1))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	u := decodeUser(docs[0])
	return &u, nil
}

var _ RemoteStore = (*Firestore)(nil)
