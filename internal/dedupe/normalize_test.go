package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input     string
		canonical string
		tokens    []string
	}{
		{"", "", nil},
		{"   ", "", nil},
		{"Joe's Pizza", "joes pizza", []string{"joes", "pizza"}},
		{"Pizza Joe's", "pizza joes", []string{"joes", "pizza"}},
		{"Acme Advisors, Inc.", "acme advisors", []string{"acme", "advisors"}},
		{"Acme Advisors L.L.C.", "acme advisors", []string{"acme", "advisors"}},
		{"Acme Holdings Co. LLC", "acme holdings", []string{"acme", "holdings"}},
		{"Smith & Jones", "smith and jones", []string{"and", "jones", "smith"}},
		{"Smith & Co", "smith", []string{"smith"}},
		{"Smith and Company, Inc.", "smith", []string{"smith"}},
		{"Johnson and Johnson", "johnson and johnson", []string{"and", "johnson"}},
		{"Smith and", "smith and", []string{"and", "smith"}},
		{"Café Olé Corporation", "cafe ole", []string{"cafe", "ole"}},
		{"  Fast   Lube  ", "fast lube", []string{"fast", "lube"}},
		{"LLC", "llc", []string{"llc"}},
		{"A-1 Plumbing", "a 1 plumbing", []string{"1", "a", "plumbing"}},
		{"!!!", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeName(tt.input)
			assert.Equal(t, tt.canonical, got.Canonical)
			assert.Equal(t, tt.tokens, got.Tokens)
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"555-123-4567", "5551234567"},
		{"(555) 123-4567", "5551234567"},
		{"+1 555.123.4567", "5551234567"},
		{"1-555-123-4567", "5551234567"},
		{"555-123-4567 x89", "5551234567"},
		{"555-123-4567 ext. 12", "5551234567"},
		{"555 123 4567 #3", "5551234567"},
		{"123-4567", ""},
		{"2 555 123 4567", ""},
		{"555-123-45678", ""},
		{"call us", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	got := NormalizeAddress("100 N. Main St.", "Springfield", "IL", "62701-1234")
	assert.Equal(t, "100 north main street", got.Primary)
	assert.Equal(t, "springfield il 62701", got.Secondary)
	assert.Equal(t, "62701", got.PostalCode)
}

func TestNormalizeAddress_Abbreviations(t *testing.T) {
	tests := []struct {
		street string
		want   string
	}{
		{"42 Elm Ave", "42 elm avenue"},
		{"7 Sunset Blvd, Ste 200", "7 sunset boulevard suite 200"},
		{"9 SW Oak Dr", "9 southwest oak drive"},
		{"1 Harbor Pkwy Apt 4", "1 harbor parkway apartment 4"},
		{"12 Main Street", "12 main street"},
	}
	for _, tt := range tests {
		t.Run(tt.street, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAddress(tt.street, "", "", "").Primary)
		})
	}
}

func TestNormalizeAddress_Partial(t *testing.T) {
	got := NormalizeAddress("", "Austin", "TX", "787")
	assert.Empty(t, got.Primary)
	assert.Empty(t, got.PostalCode)
	assert.Equal(t, "austin tx", got.Secondary)

	assert.Equal(t, AddressKey{}, NormalizeAddress("", "", "", ""))
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name    string
		website string
		email   string
		want    string
	}{
		{"empty", "", "", ""},
		{"full url", "https://www.Acme.com/about?x=1", "", "acme.com"},
		{"bare host", "acme.com", "", "acme.com"},
		{"subdomain and port", "http://shop.acme.com:8080/cart", "", "acme.com"},
		{"multi-part suffix", "www.acme.co.uk", "", "acme.co.uk"},
		{"email fallback", "", "Bob@Acme.com", "acme.com"},
		{"email subdomain", "", "bob@mail.acme.com", "acme.com"},
		{"website wins", "acme.com", "bob@other.com", "acme.com"},
		{"freemail", "", "bob@gmail.com", ""},
		{"malformed url falls back", "not a url", "ops@acme.com", "acme.com"},
		{"no dot", "localhost", "", ""},
		{"no at sign", "", "acme.com", ""},
		{"public suffix only", "co.uk", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDomain(tt.website, tt.email))
		})
	}
}

func TestNewFingerprint(t *testing.T) {
	fp := NewFingerprint(model.Record{
		Name:    "Joe's Pizza LLC",
		Phone:   "(555) 123-4567",
		Street:  "10 Main St",
		ZipCode: "10001",
		Website: "https://joespizza.com",
	})
	assert.Equal(t, "joes pizza", fp.Name.Canonical)
	assert.Equal(t, "5551234567", fp.Phone)
	assert.Equal(t, "10 main street", fp.Address.Primary)
	assert.Equal(t, "10001", fp.Address.PostalCode)
	assert.Equal(t, "joespizza.com", fp.Domain)
}
