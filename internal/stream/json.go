// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"context"
	"encoding/json"
	"io"
)

// EncodeJSON streams the source as a JSON array of row objects. The array
// is written element by element, never materialized: "[", each row's object
// separated by ",\n", then "]".
func EncodeJSON(ctx context.Context, sink io.Writer, source Source) error {
	if _, err := sink.Write([]byte("[")); err != nil {
		return err
	}

	first := true
	for {
		batch, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if batch.Empty() {
			break
		}

		for _, row := range batch.Rows {
			object := make(map[string]any, len(batch.Columns))
			for i, column := range batch.Columns {
				object[column] = jsonValue(row[i])
			}

			encoded, err := json.Marshal(object)
			if err != nil {
				return err
			}

			if !first {
				if _, err := sink.Write([]byte(",\n")); err != nil {
					return err
				}
			}
			first = false

			if _, err := sink.Write(encoded); err != nil {
				return err
			}
		}
	}

	_, err := sink.Write([]byte("]"))
	return err
}
