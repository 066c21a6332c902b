package store

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dedupe/internal/model"
	"github.com/sells-group/dedupe/pkg/notion"
)

// Notion property names for record fields.
const (
	propName    = "Name"
	propScope   = "Scope"
	propPhone   = "Phone"
	propStreet  = "Street"
	propCity    = "City"
	propState   = "State"
	propZipCode = "Zip Code"
	propWebsite = "Website"
	propEmail   = "Email"
	propNotes   = "Notes"
)

// NotionStore exposes the pages of a Notion database as records. Deleted
// records are archived. Empty phone, email and URL values are left unset
// because Notion rejects empty strings for those property types.
type NotionStore struct {
	client notion.Client
	dbID   string
}

// NewNotion creates a NotionStore over database dbID.
func NewNotion(client notion.Client, dbID string) *NotionStore {
	return &NotionStore{client: client, dbID: dbID}
}

func (s *NotionStore) ListRecords(ctx context.Context, scope string) ([]model.Record, error) {
	pages, err := notion.QueryBySelect(ctx, s.client, s.dbID, propScope, scope)
	if err != nil {
		return nil, eris.Wrap(err, "notion store: list records")
	}
	out := make([]model.Record, 0, len(pages))
	for _, p := range pages {
		if p.Archived {
			continue
		}
		out = append(out, pageToRecord(p))
	}
	return out, nil
}

// GetRecord reads one page. Missing and archived pages, and pages from
// another database, are reported as not found.
func (s *NotionStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	page, err := s.client.GetPage(ctx, id)
	if notion.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "notion store: get record %s", id)
	}
	if page.Archived || !sameNotionID(string(page.Parent.DatabaseID), s.dbID) {
		return nil, nil
	}
	rec := pageToRecord(*page)
	return &rec, nil
}

// sameNotionID compares ids with and without dashes.
func sameNotionID(a, b string) bool {
	return strings.ReplaceAll(a, "-", "") == strings.ReplaceAll(b, "-", "")
}

func (s *NotionStore) UpdateRecord(ctx context.Context, rec model.Record) error {
	if _, err := s.client.UpdatePage(ctx, rec.ID, &notionapi.PageUpdateRequest{
		Properties: recordProperties(rec),
	}); err != nil {
		return eris.Wrapf(err, "notion store: update record %s", rec.ID)
	}
	return nil
}

func (s *NotionStore) DeleteRecords(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := notion.ArchivePage(ctx, s.client, id); err != nil {
			return eris.Wrap(err, "notion store: delete records")
		}
	}
	return nil
}

func (s *NotionStore) CreateRecord(ctx context.Context, rec model.Record) (*model.Record, error) {
	page, err := s.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.dbID),
		},
		Properties: recordProperties(rec),
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion store: create record")
	}
	rec.ID = string(page.ID)
	rec.CreatedAt = page.CreatedTime
	rec.UpdatedAt = page.LastEditedTime
	return &rec, nil
}

// ImportRecords updates records that carry a page ID and creates the rest.
func (s *NotionStore) ImportRecords(ctx context.Context, recs []model.Record) (int, error) {
	for i, rec := range recs {
		var err error
		if rec.ID != "" {
			err = s.UpdateRecord(ctx, rec)
		} else {
			_, err = s.CreateRecord(ctx, rec)
		}
		if err != nil {
			return i, eris.Wrapf(err, "notion store: import record %q", rec.Name)
		}
	}
	return len(recs), nil
}

// Migrate is a no-op; the database schema is managed in Notion.
func (s *NotionStore) Migrate(context.Context) error { return nil }

func (s *NotionStore) Close() error { return nil }

func pageToRecord(p notionapi.Page) model.Record {
	props := p.Properties
	return model.Record{
		ID:        string(p.ID),
		Scope:     notion.PropertyText(props, propScope),
		Name:      notion.PropertyText(props, propName),
		Phone:     notion.PropertyText(props, propPhone),
		Street:    notion.PropertyText(props, propStreet),
		City:      notion.PropertyText(props, propCity),
		State:     notion.PropertyText(props, propState),
		ZipCode:   notion.PropertyText(props, propZipCode),
		Website:   notion.PropertyText(props, propWebsite),
		Email:     notion.PropertyText(props, propEmail),
		Notes:     notion.PropertyText(props, propNotes),
		CreatedAt: p.CreatedTime,
		UpdatedAt: p.LastEditedTime,
	}
}

func recordProperties(rec model.Record) notionapi.Properties {
	props := notionapi.Properties{
		propName:    notion.Title(rec.Name),
		propStreet:  notion.RichText(rec.Street),
		propCity:    notion.RichText(rec.City),
		propState:   notion.RichText(rec.State),
		propZipCode: notion.RichText(rec.ZipCode),
		propNotes:   notion.RichText(rec.Notes),
	}
	if rec.Scope != "" {
		props[propScope] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: rec.Scope},
		}
	}
	if rec.Phone != "" {
		props[propPhone] = notionapi.PhoneNumberProperty{Type: notionapi.PropertyTypePhoneNumber, PhoneNumber: rec.Phone}
	}
	if rec.Website != "" {
		props[propWebsite] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: rec.Website}
	}
	if rec.Email != "" {
		props[propEmail] = notionapi.EmailProperty{Type: notionapi.PropertyTypeEmail, Email: rec.Email}
	}
	return props
}
