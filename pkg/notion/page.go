package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// ArchivePage moves a page to the trash.
func ArchivePage(ctx context.Context, c Client, pageID string) error {
	if _, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Archived:   true,
		Properties: notionapi.Properties{},
	}); err != nil {
		return eris.Wrapf(err, "notion: archive page %s", pageID)
	}
	return nil
}

// Title builds a title property.
func Title(v string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: v}}},
	}
}

// RichText builds a rich_text property.
func RichText(v string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: v}}},
	}
}

// PropertyText returns the plain-text value of a page property, or "" when
// the property is missing or of an unsupported type.
func PropertyText(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case *notionapi.TitleProperty:
		return joinRichText(p.Title)
	case notionapi.TitleProperty:
		return joinRichText(p.Title)
	case *notionapi.RichTextProperty:
		return joinRichText(p.RichText)
	case notionapi.RichTextProperty:
		return joinRichText(p.RichText)
	case *notionapi.URLProperty:
		return p.URL
	case notionapi.URLProperty:
		return p.URL
	case *notionapi.PhoneNumberProperty:
		return p.PhoneNumber
	case notionapi.PhoneNumberProperty:
		return p.PhoneNumber
	case *notionapi.EmailProperty:
		return p.Email
	case notionapi.EmailProperty:
		return p.Email
	case *notionapi.SelectProperty:
		return p.Select.Name
	case notionapi.SelectProperty:
		return p.Select.Name
	}
	return ""
}

func joinRichText(rt []notionapi.RichText) string {
	var b strings.Builder
	for _, r := range rt {
		if r.PlainText != "" {
			b.WriteString(r.PlainText)
		} else if r.Text != nil {
			b.WriteString(r.Text.Content)
		}
	}
	return b.String()
}
