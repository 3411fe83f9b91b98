package io

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/ownership"
	"github.com/matzehuels/stakegraph/pkg/validate"
)

// Format is a payload encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
// ".yaml" and ".yml" select YAML; everything else is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want json or yaml)", s)
}

// Decode reads a single JSON or YAML document from r into its untyped form.
// JSON numbers are kept as json.Number so no precision is lost.
// Decode does not validate the payload and does not close r.
func Decode(r io.Reader, format Format) (any, error) {
	var payload any
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&payload); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	return payload, nil
}

// ReadGraph decodes and validates a graph from r.
//
// Flat entity lists have their edges synthesized and effective ownership
// computed; {nodes, edges} payloads are returned as validated.
func ReadGraph(r io.Reader, format Format) (entity.Graph, error) {
	payload, err := Decode(r, format)
	if err != nil {
		return entity.Graph{}, err
	}
	return FromPayload(payload)
}

// FromPayload validates an untyped payload in either accepted form.
func FromPayload(payload any) (entity.Graph, error) {
	if validate.IsFlatList(payload) {
		records, err := validate.FlatList(payload)
		if err != nil {
			return entity.Graph{}, err
		}
		g := entity.SynthesizeGraph(records)
		if _, err := ownership.Apply(&g); err != nil {
			return entity.Graph{}, err
		}
		return g, nil
	}
	return validate.Graph(payload)
}

// ReadJSON decodes and validates a JSON graph from r.
func ReadJSON(r io.Reader) (entity.Graph, error) {
	return ReadGraph(r, FormatJSON)
}

// ImportFile reads the payload stored at path, choosing the format from
// the file extension. The payload is decoded but not validated.
func ImportFile(path string) (any, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	payload, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return payload, nil
}

// ImportGraph reads and validates the graph stored at path.
func ImportGraph(path string) (entity.Graph, error) {
	payload, err := ImportFile(path)
	if err != nil {
		return entity.Graph{}, err
	}
	return FromPayload(payload)
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
