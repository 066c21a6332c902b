package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dedupe/internal/model"
	"github.com/sells-group/dedupe/pkg/salesforce"
)

// sfTimeLayout is the timestamp format of Salesforce datetime fields.
const sfTimeLayout = "2006-01-02T15:04:05.000-0700"

// SalesforceStore exposes Salesforce Accounts as records. A record scope
// maps to the Account Type. Accounts have no email field, so Email is not
// persisted.
type SalesforceStore struct {
	client salesforce.Client
}

// NewSalesforce creates a SalesforceStore over an authenticated client.
func NewSalesforce(client salesforce.Client) *SalesforceStore {
	return &SalesforceStore{client: client}
}

func (s *SalesforceStore) ListRecords(ctx context.Context, scope string) ([]model.Record, error) {
	accounts, err := salesforce.ListAccounts(ctx, s.client, scope)
	if err != nil {
		return nil, eris.Wrap(err, "salesforce store: list records")
	}
	out := make([]model.Record, len(accounts))
	for i, a := range accounts {
		out[i] = accountToRecord(a)
	}
	return out, nil
}

func (s *SalesforceStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	acct, err := salesforce.FindAccountByID(ctx, s.client, id)
	if err != nil {
		return nil, eris.Wrapf(err, "salesforce store: get record %s", id)
	}
	if acct == nil {
		return nil, nil
	}
	rec := accountToRecord(*acct)
	return &rec, nil
}

func (s *SalesforceStore) UpdateRecord(ctx context.Context, rec model.Record) error {
	return salesforce.UpdateAccount(ctx, s.client, rec.ID, accountFields(rec))
}

func (s *SalesforceStore) DeleteRecords(ctx context.Context, ids []string) error {
	return salesforce.DeleteAccounts(ctx, s.client, ids)
}

func (s *SalesforceStore) CreateRecord(ctx context.Context, rec model.Record) (*model.Record, error) {
	id, err := salesforce.CreateAccount(ctx, s.client, accountFields(rec))
	if err != nil {
		return nil, eris.Wrap(err, "salesforce store: create record")
	}
	rec.ID = id
	return &rec, nil
}

// ImportRecords updates records that carry an Account ID and creates the rest.
func (s *SalesforceStore) ImportRecords(ctx context.Context, recs []model.Record) (int, error) {
	for i, rec := range recs {
		var err error
		if rec.ID != "" {
			err = s.UpdateRecord(ctx, rec)
		} else {
			_, err = s.CreateRecord(ctx, rec)
		}
		if err != nil {
			return i, eris.Wrapf(err, "salesforce store: import record %q", rec.Name)
		}
	}
	return len(recs), nil
}

// Migrate is a no-op; the Account schema is managed in Salesforce.
func (s *SalesforceStore) Migrate(context.Context) error { return nil }

func (s *SalesforceStore) Close() error { return nil }

func accountToRecord(a salesforce.Account) model.Record {
	return model.Record{
		ID:        a.ID,
		Scope:     a.Type,
		Name:      a.Name,
		Phone:     a.Phone,
		Street:    a.BillingStreet,
		City:      a.BillingCity,
		State:     a.BillingState,
		ZipCode:   a.BillingPostalCode,
		Website:   a.Website,
		Notes:     a.Description,
		CreatedAt: parseSFTime(a.CreatedDate),
		UpdatedAt: parseSFTime(a.LastModifiedDate),
	}
}

func accountFields(rec model.Record) map[string]any {
	fields := map[string]any{
		"Name":              rec.Name,
		"Phone":             rec.Phone,
		"BillingStreet":     rec.Street,
		"BillingCity":       rec.City,
		"BillingState":      rec.State,
		"BillingPostalCode": rec.ZipCode,
		"Website":           rec.Website,
		"Description":       rec.Notes,
	}
	if rec.Scope != "" {
		fields["Type"] = rec.Scope
	}
	return fields
}

func parseSFTime(s string) time.Time {
	t, err := time.Parse(sfTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
