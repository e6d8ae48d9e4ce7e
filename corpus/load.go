// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corpus

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pelletier/go-toml/v2"

	"github.com/poiesic/waypoint/core"
)

// Format identifies a corpus encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// document is the object form shared by both encodings.
type document struct {
	Routes []*core.Route `json:"routes" toml:"routes"`
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatTOML:
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// LoadFile reads and decodes the corpus at path. Routes are not validated.
func LoadFile(path string) ([]*core.Route, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	routes, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return routes, nil
}

// Decode parses a corpus. Null entries are dropped.
func Decode(data []byte, format Format) ([]*core.Route, error) {
	var routes []*core.Route

	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &routes); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
			}
		} else {
			var doc document
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
			}
			routes = doc.Routes
		}
	case FormatTOML:
		var doc document
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
		}
		routes = doc.Routes
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	kept := routes[:0]
	for _, r := range routes {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// Encode renders routes in the given format, using the object form.
func Encode(routes []*core.Route, format Format) ([]byte, error) {
	doc := document{Routes: routes}
	if doc.Routes == nil {
		doc.Routes = []*core.Route{}
	}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatTOML:
		return toml.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
