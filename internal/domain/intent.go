package domain

import "time"

type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusReserved  IntentStatus = "reserved"
	IntentStatusCommitted IntentStatus = "committed"
	IntentStatusReleased  IntentStatus = "released"
	IntentStatusAbandoned IntentStatus = "abandoned"
)

// CapacityIntent is the durable journal entry for one spot taken from a
// location. It is written before the reserve so that a crash between the
// reserve and the order insert can be repaired by the intent sweep.
//
//	pending -> reserved -> committed -> released
//	pending -> abandoned
//	reserved -> released
type CapacityIntent struct {
	ID         string       `json:"id"`
	OrderID    string       `json:"order_id"`
	LocationID string       `json:"location_id"`
	Status     IntentStatus `json:"status"`
	CreatedOn  time.Time    `json:"created_on"`
	UpdatedOn  time.Time    `json:"updated_on"`
}

// ElapseReport summarises one batch of elapsed-order completion. FailedIDs
// are passed back as the skip list of the next batch in the same run.
type ElapseReport struct {
	Completed int      `json:"completed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// Listed is how many orders the batch picked up.
func (r ElapseReport) Listed() int { return r.Completed + len(r.FailedIDs) }

// SweepReport summarises one pass of the capacity intent sweep.
type SweepReport struct {
	Abandoned int `json:"abandoned"`
	Released  int `json:"released"`
	Failed    int `json:"failed"`
}
