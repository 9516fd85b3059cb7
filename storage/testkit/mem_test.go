package testkit

import (
	"testing"

	"xdao.co/unf/storage"
)

func TestMemCAS_Conformance(t *testing.T) {
	RunCASConformance(t, func(t *testing.T) storage.CAS { return NewMemCAS() })
}
