// Package sample provides the built-in demonstration dataset: a fictional
// multinational group with holding, operating and finance entities across
// three regions, a minority joint venture and a jointly held IP company.
package sample

import (
	"bytes"
	_ "embed"

	"github.com/matzehuels/stakegraph/pkg/entity"
	graphio "github.com/matzehuels/stakegraph/pkg/io"
	"github.com/matzehuels/stakegraph/pkg/ownership"
)

//go:embed data/corporate.json
var corporate []byte

// JSON returns the raw sample payload.
func JSON() []byte {
	return bytes.Clone(corporate)
}

// Payload returns the sample decoded into the untyped form accepted by
// store.Load.
func Payload() (any, error) {
	return graphio.Decode(bytes.NewReader(corporate), graphio.FormatJSON)
}

// Graph returns the validated sample graph with effective ownership
// computed.
func Graph() (entity.Graph, error) {
	g, err := graphio.ReadJSON(bytes.NewReader(corporate))
	if err != nil {
		return entity.Graph{}, err
	}
	if _, err := ownership.Apply(&g); err != nil {
		return entity.Graph{}, err
	}
	return g, nil
}
