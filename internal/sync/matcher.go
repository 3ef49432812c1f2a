package sync

import (
	"context"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/store"
)

// Matcher resolves external records to local ones. The external-id lookup is
// authoritative and lives on the store's get-by-external-id methods; Matcher
// adds the fallback path for sources that carry no external id at all, such
// as correlating a call event to a customer by phone.
type Matcher struct {
	store store.Store
}

// NewMatcher creates a Matcher over the given store.
func NewMatcher(s store.Store) *Matcher {
	return &Matcher{store: s}
}

// MatchCustomerByPhone scans active customers for one whose normalized phone
// matches the input. Malformed or short input yields no match, never an
// error. The scan is O(n) over active customers: no external system provides
// a phone index, and the candidate set is small relative to how often this
// runs — a scaling limit, not a correctness concern.
func (m *Matcher) MatchCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	normalized := NormalizePhone(phone)
	if !MatchablePhone(normalized) {
		return nil, nil
	}

	customers, err := m.store.ListActiveCustomers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		if NormalizePhone(customers[i].Phone) == normalized {
			return &customers[i], nil
		}
	}
	return nil, nil
}
