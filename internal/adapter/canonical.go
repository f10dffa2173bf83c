package adapter

import (
	"fmt"

	"github.com/gowebpki/jcs"
)

// JCS produces RFC 8785 canonical JSON, so equal values always hash equally
//
//go:generate mockgen -source=canonical.go -destination=../mocks/canonical.go -package=mocks -mock_names=JCS=MockJCS
type JCS interface {
	// Canonicalize marshals v and rewrites it in canonical form
	Canonicalize(v interface{}) ([]byte, error)
}

type canonicalJSON struct {
	json JSON
}

// NewJCS creates a canonicalizer on top of the given JSON marshaller
func NewJCS(json JSON) JCS {
	return &canonicalJSON{json: json}
}

func (c *canonicalJSON) Canonicalize(v interface{}) ([]byte, error) {
	data, err := c.json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return jcs.Transform(data)
}
