package dedupe

import (
	"strings"

	"github.com/rotisserie/eris"
)

// BlockingStrategy selects how records are partitioned before pairwise
// scoring. Only records sharing a block are compared, so any strategy
// other than BlockingNone trades recall for speed.
type BlockingStrategy string

const (
	// BlockingNone compares every pair.
	BlockingNone BlockingStrategy = "none"
	// BlockingPostalPrefix blocks on the first three postal digits.
	BlockingPostalPrefix BlockingStrategy = "postal_prefix"
	// BlockingNamePrefix blocks on the first three letters of the canonical name.
	BlockingNamePrefix BlockingStrategy = "name_prefix"
	// BlockingPhone blocks on the canonical phone number.
	BlockingPhone BlockingStrategy = "phone"
)

const blockPrefixLen = 3

// ParseBlockingStrategy parses a strategy name; "" means BlockingNone.
func ParseBlockingStrategy(s string) (BlockingStrategy, error) {
	switch BlockingStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", BlockingNone:
		return BlockingNone, nil
	case BlockingPostalPrefix:
		return BlockingPostalPrefix, nil
	case BlockingNamePrefix:
		return BlockingNamePrefix, nil
	case BlockingPhone:
		return BlockingPhone, nil
	}
	return "", eris.Errorf("dedupe: unknown blocking strategy %q", s)
}

// blockKey returns the block a fingerprint belongs to. Records without a
// key share the "" block.
func (s BlockingStrategy) blockKey(fp Fingerprint) string {
	switch s {
	case BlockingPostalPrefix:
		return prefix(fp.Address.PostalCode, blockPrefixLen)
	case BlockingNamePrefix:
		return prefix(strings.ReplaceAll(fp.Name.Canonical, " ", ""), blockPrefixLen)
	case BlockingPhone:
		return fp.Phone
	}
	return ""
}

// buildBlocks groups record indexes by block key. Each index lands in
// exactly one block, in ascending order, so a pair is never visited twice.
func buildBlocks(s BlockingStrategy, fps []Fingerprint) (members [][]int, blockOf []int) {
	blockOf = make([]int, len(fps))
	byKey := make(map[string]int)
	for i, fp := range fps {
		key := s.blockKey(fp)
		b, ok := byKey[key]
		if !ok {
			b = len(members)
			byKey[key] = b
			members = append(members, nil)
		}
		members[b] = append(members[b], i)
		blockOf[i] = b
	}
	return members, blockOf
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
