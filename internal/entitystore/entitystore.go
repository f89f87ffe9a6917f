// Package entitystore holds only the query contract the executor needs
// against the tenant record store (spec §1: the entity store itself is an
// out-of-scope external collaborator).
package entitystore

import "context"

// Record is an opaque tenant record. RecordID is used to build the
// publisher's message key (tenant_id + "-" + record_id).
type Record struct {
	RecordID string
	Payload  []byte
}

// Store exposes the one contract the executor depends on: the ordered
// sequence of records belonging to a tenant.
type Store interface {
	RecordsFor(ctx context.Context, tenantID string) ([]Record, error)
}
