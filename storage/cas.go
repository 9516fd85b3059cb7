// Package storage defines the content-addressed store that canonical UNF
// reports are published to, plus ordered fallback and replication over
// several stores.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers are responsible for supplying canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}

// Validator inspects a payload before it is stored. Stores that only accept
// a particular document type install one; a non-nil error rejects the Put.
type Validator func(data []byte) error
