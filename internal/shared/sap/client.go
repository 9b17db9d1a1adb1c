// Package sap holds the outbound SAP gateway contract. The sync engine only
// sees the Client interface; which implementation backs it is a config
// decision made at startup.
package sap

import "context"

// Result is the gateway's verdict on one sync attempt. Detail carries the
// human-readable reason and goes straight into the sync log row.
type Result struct {
	OK     bool
	Detail string
}

// Client pushes one purchase request to SAP.
//
// A returned error means the attempt itself could not be carried out
// (transport failure, timeout). A Result with OK=false means SAP answered
// and rejected the document. The sync engine records both as Failed; the
// distinction only changes the detail text.
type Client interface {
	AttemptSync(ctx context.Context, prID string) (Result, error)
}
