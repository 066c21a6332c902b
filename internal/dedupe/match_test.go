package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchName(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		want    float64
		exact   bool
		present bool
	}{
		{"identical", "Joe's Pizza", "Joes Pizza Inc", 1, true, true},
		{"reordered tokens", "Joe's Pizza", "Pizza Joe's", 1, false, true},
		{"below floor", "Acme", "Zebra", 0, false, true},
		{"one side empty", "Acme", "", 0, false, false},
		{"both empty", "", "", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := MatchName(NormalizeName(tt.a), NormalizeName(tt.b), 0.5)
			assert.Equal(t, FieldName, d.Field)
			assert.InDelta(t, tt.want, d.Similarity, 0.0001)
			assert.Equal(t, tt.exact, d.Exact)
			assert.Equal(t, tt.present, d.Present)
		})
	}
}

func TestMatchName_EditRatio(t *testing.T) {
	d := MatchName(NormalizeName("abcdefghij"), NormalizeName("abcdefgxyz"), 0.5)
	assert.InDelta(t, 0.7, d.Similarity, 0.0001)
	assert.False(t, d.Exact)
	assert.Equal(t, "abcdefghij", d.Left)
	assert.Equal(t, "abcdefgxyz", d.Right)
}

func TestMatchName_FloorIsConfigurable(t *testing.T) {
	a, b := NormalizeName("abcdefghij"), NormalizeName("abcdefgxyz")
	assert.InDelta(t, 0, MatchName(a, b, 0.8).Similarity, 0.0001)
	assert.InDelta(t, 0.7, MatchName(a, b, 0).Similarity, 0.0001)
}

func TestMatchPhone(t *testing.T) {
	d := MatchPhone(NormalizePhone("555-123-4567"), NormalizePhone("(555) 123-4567"))
	assert.True(t, d.Present)
	assert.True(t, d.Exact)
	assert.InDelta(t, 1, d.Similarity, 0.0001)

	d = MatchPhone(NormalizePhone("555-123-4567"), NormalizePhone("555-123-4568"))
	assert.True(t, d.Present)
	assert.False(t, d.Exact)
	assert.InDelta(t, 0, d.Similarity, 0.0001)

	d = MatchPhone(NormalizePhone("555-123-4567"), NormalizePhone("12345"))
	assert.False(t, d.Present)
}

func TestMatchAddress_DistinctPostalCodesCapped(t *testing.T) {
	a := NormalizeAddress("100 Main St", "", "", "10001")
	b := NormalizeAddress("100 Main St", "", "", "90210")

	d := MatchAddress(a, b, addressPostalCap)
	assert.True(t, d.Present)
	assert.False(t, d.Exact)
	assert.LessOrEqual(t, d.Similarity, addressPostalCap)
	assert.Less(t, d.Similarity, DefaultConfig().DuplicateThreshold)

	d = MatchAddress(a, b, 0.1)
	assert.InDelta(t, 0.1, d.Similarity, 0.0001)
}

func TestMatchAddress_SameLocation(t *testing.T) {
	a := NormalizeAddress("100 Main St", "Springfield", "IL", "62701")
	b := NormalizeAddress("100 Main Street", "Springfield", "IL", "62701-0001")

	d := MatchAddress(a, b, addressPostalCap)
	assert.True(t, d.Exact)
	assert.InDelta(t, 1, d.Similarity, 0.0001)
	assert.Equal(t, "100 main street, springfield il 62701", d.Left)
}

func TestMatchAddress_PrimaryOnlyWhenSecondaryMissing(t *testing.T) {
	a := NormalizeAddress("100 Main St", "Springfield", "IL", "")
	b := NormalizeAddress("100 Main St", "", "", "")

	d := MatchAddress(a, b, addressPostalCap)
	assert.True(t, d.Present)
	assert.InDelta(t, 1, d.Similarity, 0.0001)
	assert.False(t, d.Exact)
}

func TestMatchAddress_PrimaryWeightedHigher(t *testing.T) {
	a := NormalizeAddress("100 Main St", "Springfield", "IL", "62701")
	b := NormalizeAddress("100 Main St", "Shelbyville", "IL", "62701")

	d := MatchAddress(a, b, addressPostalCap)
	assert.Greater(t, d.Similarity, addressPrimaryWeight)
	assert.Less(t, d.Similarity, 1.0)
}

func TestMatchAddress_MissingStreet(t *testing.T) {
	a := NormalizeAddress("", "Springfield", "IL", "62701")
	b := NormalizeAddress("100 Main St", "Springfield", "IL", "62701")
	assert.False(t, MatchAddress(a, b, addressPostalCap).Present)
}

func TestMatchDomain(t *testing.T) {
	d := MatchDomain("acme.com", "acme.com")
	assert.True(t, d.Present)
	assert.True(t, d.Exact)
	assert.InDelta(t, 1, d.Similarity, 0.0001)

	d = MatchDomain("acme.com", "acme.net")
	assert.True(t, d.Present)
	assert.InDelta(t, 0, d.Similarity, 0.0001)

	d = MatchDomain("acme.com", "")
	assert.False(t, d.Present)
	assert.InDelta(t, 0, d.Similarity, 0.0001)
}

func TestEditRatio(t *testing.T) {
	assert.InDelta(t, 0, editRatio("", ""), 0.0001)
	assert.InDelta(t, 0, editRatio("abc", ""), 0.0001)
	assert.InDelta(t, 1, editRatio("abc", "abc"), 0.0001)
	assert.InDelta(t, 0.75, editRatio("abcd", "abce"), 0.0001)
	assert.InDelta(t, editRatio("kitten", "sitting"), editRatio("sitting", "kitten"), 0.0001)
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 1, jaccard([]string{"a", "b"}, []string{"a", "b"}), 0.0001)
	assert.InDelta(t, 1.0/3.0, jaccard([]string{"a", "b"}, []string{"b", "c"}), 0.0001)
	assert.InDelta(t, 0, jaccard(nil, []string{"a"}), 0.0001)
}
