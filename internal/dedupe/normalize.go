package dedupe

import (
	"net"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/dedupe/internal/model"
)

// NameKey is the canonical form of a business name.
type NameKey struct {
	Canonical string   `json:"canonical"`
	Tokens    []string `json:"tokens,omitempty"`
}

// AddressKey is the canonical form of a postal address split into a
// street segment (Primary) and a locality segment (Secondary).
type AddressKey struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	PostalCode string `json:"postal_code"`
}

// Fingerprint holds every normalized field of a record so a record is
// normalized once per scan rather than once per comparison.
type Fingerprint struct {
	Name    NameKey
	Phone   string
	Address AddressKey
	Domain  string
}

// NewFingerprint normalizes all comparable fields of r.
func NewFingerprint(r model.Record) Fingerprint {
	return Fingerprint{
		Name:    NormalizeName(r.Name),
		Phone:   NormalizePhone(r.Phone),
		Address: NormalizeAddress(r.Street, r.City, r.State, r.ZipCode),
		Domain:  NormalizeDomain(r.Website, r.Email),
	}
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// legalSuffixes are trailing entity designators that carry no identity.
var legalSuffixes = map[string]bool{
	"llc": true, "inc": true, "incorporated": true,
	"corp": true, "corporation": true,
	"co": true, "company": true,
	"ltd": true, "limited": true,
	"lp": true, "llp": true, "pllc": true,
	"pc": true, "plc": true,
}

var namePunct = strings.NewReplacer(
	"'", "",
	"’", "",
	".", "",
	"&", " and ",
)

// NormalizeName lowercases the name, removes punctuation and accents,
// strips trailing legal-entity suffixes and tokenizes the rest.
func NormalizeName(raw string) NameKey {
	tokens := cleanTokens(namePunct.Replace(foldText(raw)))

	// Keep at least one token so "Company LLC" stays "company". A connector
	// left dangling by a suffix goes too: "Smith & Co" is "smith".
	stripped := false
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if !legalSuffixes[last] && (!stripped || last != "and") {
			break
		}
		tokens = tokens[:len(tokens)-1]
		stripped = true
	}
	if len(tokens) == 0 {
		return NameKey{}
	}

	return NameKey{
		Canonical: strings.Join(tokens, " "),
		Tokens:    tokenSet(tokens),
	}
}

// NormalizePhone reduces a phone number to its 10 national digits.
// Anything that does not reduce to exactly 10 digits returns "".
func NormalizePhone(raw string) string {
	// Cut extensions: "x12", "ext. 12", "#12".
	s := strings.ToLower(raw)
	if i := strings.IndexAny(s, "x#"); i >= 0 {
		s = s[:i]
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return digits
}

// addressAbbreviations maps street-type, directional and unit
// abbreviations to their long form.
var addressAbbreviations = map[string]string{
	"n": "north", "s": "south", "e": "east", "w": "west",
	"ne": "northeast", "nw": "northwest", "se": "southeast", "sw": "southwest",
	"st": "street", "str": "street",
	"ave": "avenue", "av": "avenue",
	"blvd": "boulevard",
	"rd": "road",
	"dr": "drive",
	"ln": "lane",
	"ct": "court",
	"cir": "circle",
	"pl": "place",
	"pkwy": "parkway", "pky": "parkway",
	"hwy": "highway",
	"fwy": "freeway",
	"expy": "expressway",
	"ter": "terrace",
	"trl": "trail",
	"sq": "square",
	"plz": "plaza",
	"ctr": "center",
	"mt": "mount",
	"ste": "suite",
	"apt": "apartment",
	"bldg": "building",
	"fl": "floor",
	"rm": "room",
}

// NormalizeAddress canonicalizes the address parts. Primary is the street
// line with abbreviations expanded; Secondary joins city, state and the
// 5-digit postal code.
func NormalizeAddress(street, city, state, zip string) AddressKey {
	primary := expandAbbreviations(cleanTokens(foldText(street)))
	postal := normalizePostal(zip)

	var secondary []string
	secondary = append(secondary, cleanTokens(foldText(city))...)
	secondary = append(secondary, cleanTokens(foldText(state))...)
	if postal != "" {
		secondary = append(secondary, postal)
	}

	return AddressKey{
		Primary:    strings.Join(primary, " "),
		Secondary:  strings.Join(secondary, " "),
		PostalCode: postal,
	}
}

// freemailDomains identify a mailbox provider, not a business.
var freemailDomains = map[string]bool{
	"gmail.com": true, "googlemail.com": true,
	"yahoo.com": true, "ymail.com": true,
	"hotmail.com": true, "outlook.com": true, "live.com": true, "msn.com": true,
	"aol.com": true,
	"icloud.com": true, "me.com": true, "mac.com": true,
	"protonmail.com": true, "proton.me": true,
	"comcast.net": true, "att.net": true, "verizon.net": true, "sbcglobal.net": true,
}

// NormalizeDomain returns the registrable domain of the website, falling
// back to the domain of the email address. Free-mail email domains and
// unparseable input return "".
func NormalizeDomain(website, email string) string {
	if d := domainFromURL(website); d != "" {
		return d
	}

	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	d := registrableDomain(email[at+1:])
	if freemailDomains[d] {
		return ""
	}
	return d
}

func domainFromURL(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return registrableDomain(u.Hostname())
}

func registrableDomain(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	if net.ParseIP(host) != nil {
		return host
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return d
}

func normalizePostal(zip string) string {
	var b strings.Builder
	for _, r := range zip {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 5 {
		return ""
	}
	return digits[:5]
}

// foldText lowercases s and strips diacritics.
func foldText(s string) string {
	out, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// cleanTokens splits s on anything that is not a letter or digit.
func cleanTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func expandAbbreviations(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if long, ok := addressAbbreviations[t]; ok {
			out[i] = long
		} else {
			out[i] = t
		}
	}
	return out
}

// tokenSet returns the sorted unique tokens.
func tokenSet(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	set := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			set = append(set, t)
		}
	}
	sort.Strings(set)
	return set
}
