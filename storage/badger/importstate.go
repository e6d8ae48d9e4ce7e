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

package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/storage"
)

// ImportStateRepository implements storage.ImportStateRepository for BadgerDB.
type ImportStateRepository struct {
	backend *Backend
}

var _ storage.ImportStateRepository = (*ImportStateRepository)(nil)

// NewImportStateRepository creates a new ImportStateRepository.
func NewImportStateRepository(backend *Backend) *ImportStateRepository {
	return &ImportStateRepository{
		backend: backend,
	}
}

// SaveImportState persists the state of the last import.
func (r *ImportStateRepository) SaveImportState(ctx context.Context, state *core.ImportState) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		state.ImportedAt = time.Now().UTC().Truncate(time.Microsecond)
		if err := tx.Set([]byte(importStateKey), storage.MarshalImportState(state)); err != nil {
			return err
		}
		return nil
	}, true)
}

// LoadImportState retrieves the state of the last import.
// Returns nil, nil if no import has been recorded.
func (r *ImportStateRepository) LoadImportState(ctx context.Context) (*core.ImportState, error) {
	var state *core.ImportState
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(importStateKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalImportState(val)
			return unmarshalErr
		})
	}, false)

	return state, err
}
