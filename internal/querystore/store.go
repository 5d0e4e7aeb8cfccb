// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package querystore

import "context"

// # Query Store Data Access

// Repository defines the persistence contract for query store entries.
type Repository interface {

	/*
		FindByHash returns the entry with the given content hash.

		Parameters:
		  - context: context.Context
		  - hash: string (hex sha256)

		Returns:
		  - *Entry: The hydrated cache entry
		  - error: ErrNotFound if no entry carries the hash
	*/
	FindByHash(context context.Context, hash string) (*Entry, error)

	/*
		FindByID returns the entry with the given short id.

		Parameters:
		  - context: context.Context
		  - id: string (short token)

		Returns:
		  - *Entry: The hydrated cache entry
		  - error: ErrNotFound if the id is unknown
	*/
	FindByID(context context.Context, id string) (*Entry, error)

	/*
		IDExists reports whether a short id is already taken. Used by the
		minting loop to collision-check candidates.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - bool: True when an entry with the id exists
		  - error: Database retrieval failures
	*/
	IDExists(context context.Context, id string) (bool, error)

	/*
		Upsert persists an entry, inserting on a new hash and overwriting
		the stored record on a known one. Concurrent regeneration of the
		same hash resolves as last writer wins.

		Parameters:
		  - context: context.Context
		  - entry: *Entry

		Returns:
		  - error: Database persistence failures
	*/
	Upsert(context context.Context, entry *Entry) error
}
