package domain

import "time"

// PurchaseRecord is the audit trail entry for a committed purchase.
// It is observational: allocation correctness never depends on it.
type PurchaseRecord struct {
	ID           string
	EventID      uint64
	Quantity     uint64
	Payer        string
	Denomination Denomination
	CreatedAt    time.Time
}
