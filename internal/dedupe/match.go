package dedupe

// Field names, in reason precedence order.
const (
	FieldPhone   = "phone"
	FieldName    = "name"
	FieldDomain  = "domain"
	FieldAddress = "address"
)

// addressPostalCap bounds address similarity when both postal codes are
// known and differ. Config.postalCap lowers it further for low duplicate
// thresholds.
const addressPostalCap = 0.40

// Primary street segment vs. city/state/postal segment.
const (
	addressPrimaryWeight   = 0.75
	addressSecondaryWeight = 0.25
)

// FieldMatchDetail is the comparison of one field across two records.
// Present is false when either side had nothing to compare; such fields
// are excluded from the score.
type FieldMatchDetail struct {
	Field      string  `json:"field"`
	Similarity float64 `json:"similarity"`
	Exact      bool    `json:"exact"`
	Present    bool    `json:"present"`
	Left       string  `json:"left,omitempty"`
	Right      string  `json:"right,omitempty"`
}

// MatchName compares two business names. The similarity is the larger of
// the edit-distance ratio and the token-set overlap, floored to 0 when it
// falls below minSimilarity.
func MatchName(a, b NameKey, minSimilarity float64) FieldMatchDetail {
	d := FieldMatchDetail{Field: FieldName, Left: a.Canonical, Right: b.Canonical}
	if a.Canonical == "" || b.Canonical == "" {
		return d
	}
	d.Present = true

	if a.Canonical == b.Canonical {
		d.Similarity = 1
		d.Exact = true
		return d
	}

	sim := max(editRatio(a.Canonical, b.Canonical), jaccard(a.Tokens, b.Tokens))
	if sim < minSimilarity {
		sim = 0
	}
	d.Similarity = clamp01(sim)
	return d
}

// MatchPhone compares two canonical phone numbers. There is no partial credit.
func MatchPhone(a, b string) FieldMatchDetail {
	d := FieldMatchDetail{Field: FieldPhone, Left: a, Right: b}
	if a == "" || b == "" {
		return d
	}
	d.Present = true
	if a == b {
		d.Similarity = 1
		d.Exact = true
	}
	return d
}

// MatchAddress compares two addresses. The street segment dominates; the
// locality segment only contributes when both sides have one. Distinct
// postal codes cap the similarity at postalCap.
func MatchAddress(a, b AddressKey, postalCap float64) FieldMatchDetail {
	d := FieldMatchDetail{Field: FieldAddress, Left: a.joined(), Right: b.joined()}
	if a.Primary == "" || b.Primary == "" {
		return d
	}
	d.Present = true

	sim := editRatio(a.Primary, b.Primary)
	if a.Secondary != "" && b.Secondary != "" {
		sim = addressPrimaryWeight*sim + addressSecondaryWeight*editRatio(a.Secondary, b.Secondary)
	}
	if a.PostalCode != "" && b.PostalCode != "" && a.PostalCode != b.PostalCode {
		sim = min(sim, postalCap)
	}

	d.Similarity = clamp01(sim)
	d.Exact = a == b
	return d
}

// MatchDomain compares two registrable domains. There is no partial credit.
func MatchDomain(a, b string) FieldMatchDetail {
	d := FieldMatchDetail{Field: FieldDomain, Left: a, Right: b}
	if a == "" || b == "" {
		return d
	}
	d.Present = true
	if a == b {
		d.Similarity = 1
		d.Exact = true
	}
	return d
}

func (k AddressKey) joined() string {
	switch {
	case k.Primary == "":
		return k.Secondary
	case k.Secondary == "":
		return k.Primary
	}
	return k.Primary + ", " + k.Secondary
}
