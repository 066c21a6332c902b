package dedupe

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/dedupe/internal/model"
)

// MergeRecords fills every empty contact field of keep from the first
// record in merges that has a value for it. Fields already set on keep
// never change. A provenance note naming the merged records and the
// filled fields is appended to Notes. It returns the merged copy and the
// names of the fields that were filled.
func MergeRecords(keep model.Record, merges []model.Record, now time.Time) (model.Record, []string) {
	out := keep
	filled := []string{}
	if len(merges) == 0 {
		return out, filled
	}

	for _, f := range model.MergeableFields {
		if strings.TrimSpace(out.Field(f)) != "" {
			continue
		}
		for _, m := range merges {
			if v := m.Field(f); strings.TrimSpace(v) != "" {
				out.SetField(f, v)
				filled = append(filled, f)
				break
			}
		}
	}

	out.Notes = appendNote(out.Notes, provenanceNote(merges, filled, now))
	out.UpdatedAt = now
	return out, filled
}

func provenanceNote(merges []model.Record, filled []string, now time.Time) string {
	refs := make([]string, len(merges))
	for i, m := range merges {
		refs[i] = m.ID
		if refs[i] == "" {
			refs[i] = fmt.Sprintf("%q", m.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Merged %s", now.UTC().Format("2006-01-02"), strings.Join(refs, ", "))
	if len(filled) > 0 {
		fmt.Fprintf(&b, "; filled: %s", strings.Join(filled, ", "))
	} else {
		b.WriteString("; no fields filled")
	}
	return b.String()
}

func appendNote(notes, note string) string {
	if strings.TrimSpace(notes) == "" {
		return note
	}
	return strings.TrimRight(notes, "\n") + "\n" + note
}
