// Package sampledata provides the steel-wheels demo domain and a
// deterministic data set for it.
package sampledata

import (
	"bytes"
	_ "embed"

	"github.com/atlekbai/metaquery/internal/schema"
)

const (
	DomainID   = "steel-wheels"
	Connection = "steelwheels"
)

//go:embed steelwheels.yaml
var steelWheels []byte

// Domain decodes a fresh copy of the steel-wheels domain.
func Domain() (*schema.Domain, error) {
	return schema.DecodeDomain(bytes.NewReader(steelWheels))
}

// Registry builds a registry holding only the steel-wheels domain.
func Registry() (*schema.Registry, error) {
	d, err := Domain()
	if err != nil {
		return nil, err
	}
	return schema.NewRegistry(d)
}
