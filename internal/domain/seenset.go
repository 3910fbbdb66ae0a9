package domain

// SeenSet is the in-memory view of the deduplication ledger. Membership, not
// count, is what matters; duplicate adds are harmless.
type SeenSet map[string]struct{}

// NewSeenSet builds an empty set.
func NewSeenSet() SeenSet {
	return SeenSet{}
}

// Contains reports whether the id was already notified.
func (s SeenSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Add marks an id as notified for the remainder of the run.
func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}

// MessageID is the opaque handle a notification channel returns for a sent
// message; the zero value means no message was delivered.
type MessageID int64
