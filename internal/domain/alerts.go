package domain

import "github.com/google/uuid"

// SoonExpiringDays is the forward-looking window, in days, used to flag
// products that are about to expire.
const SoonExpiringDays = 3

// ExpirationAlertsResult partitions products into those already expired and
// those expiring soon. It is rebuilt on every load and never persisted.
type ExpirationAlertsResult struct {
	Expired     []*Product
	SoonExpired []*Product
}

// NewExpirationAlertsResult builds a result, dropping from soonExpired any
// product already listed as expired so the two sets stay disjoint.
func NewExpirationAlertsResult(expired, soonExpired []*Product) *ExpirationAlertsResult {
	seen := make(map[uuid.UUID]struct{}, len(expired))
	for _, p := range expired {
		seen[p.ID] = struct{}{}
	}

	soon := make([]*Product, 0, len(soonExpired))
	for _, p := range soonExpired {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		soon = append(soon, p)
	}

	if expired == nil {
		expired = []*Product{}
	}
	return &ExpirationAlertsResult{Expired: expired, SoonExpired: soon}
}

func (r *ExpirationAlertsResult) TotalCount() int {
	return len(r.Expired) + len(r.SoonExpired)
}
