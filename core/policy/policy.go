package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// Policy authorizes senders against a fixed allowlist of Telegram user IDs.
// It is built once at startup and never mutated, so concurrent IsAllowed
// calls need no locking.
type Policy struct {
	allowed map[int64]struct{}
}

// New creates a Policy that authorizes only the given user IDs.
func New(userIDs []int64) *Policy {
	allowed := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}
	return &Policy{allowed: allowed}
}

// IsAllowed reports whether senderID is on the allowlist.
func (p *Policy) IsAllowed(senderID int64) bool {
	_, ok := p.allowed[senderID]
	return ok
}

// Len returns the number of distinct allowed IDs.
func (p *Policy) Len() int {
	return len(p.allowed)
}

// ParseAllowList parses a comma-separated list of integer user IDs.
// Whitespace around entries is ignored. Any empty or non-integer entry is an error.
func ParseAllowList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("allowlist is empty")
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for i, part := range parts {
		entry := strings.TrimSpace(part)
		if entry == "" {
			return nil, fmt.Errorf("allowlist entry %d is empty", i+1)
		}
		id, err := strconv.ParseInt(entry, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("allowlist entry %d %q: not an integer user id", i+1, entry)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
