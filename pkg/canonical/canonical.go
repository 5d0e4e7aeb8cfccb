// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package canonical provides key-order-independent JSON serialization.

Content hashes of request options must be stable: two structurally equal
option objects must hash identically regardless of the key order or number
formatting they arrived with. Marshal achieves this by round-tripping the
value through an untyped representation, relying on [encoding/json] emitting
map keys in sorted order and [json.Number] preserving numeric text verbatim.
*/
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal serializes v into canonical JSON bytes.
//
// Structurally equal inputs produce byte-identical output.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}

	// Re-decode into an untyped tree. UseNumber keeps numeric text intact
	// so 1 and 1.0 from different sources do not collapse or diverge.
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var tree any
	if err := decoder.Decode(&tree); err != nil {
		return nil, fmt.Errorf("canonical: decode: %w", err)
	}

	// Maps re-marshal with sorted keys; this is the canonical form.
	out, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("canonical: remarshal: %w", err)
	}

	return out, nil
}
