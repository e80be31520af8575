package kvstore

import "encoding/json"

const RecordTypeSubscription = "subscription"

// OwnerRecord is the store's canonical shape for an owned object. Unset
// optional fields are omitted on the wire rather than sent as explicit
// nulls.
type OwnerRecord struct {
	ID string `json:"id,omitempty"`
	// Key is a legacy alias for ID accepted from older callers. When both
	// are set, ID wins; the alias is never transmitted.
	Key             string          `json:"key,omitempty"`
	Owner           string          `json:"owner,omitempty"`
	AuthorizedUsers []string        `json:"authorizedUsers,omitempty"`
	Type            string          `json:"type,omitempty"`
	Name            string          `json:"name,omitempty"`
	StartDate       int64           `json:"startDate,omitempty"`
	EndDate         int64           `json:"endDate,omitempty"`
	Object          json.RawMessage `json:"object,omitempty"`
}
