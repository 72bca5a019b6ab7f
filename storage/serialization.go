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


package storage

import (
	"fmt"
	"time"

	"github.com/poiesic/vectorprep/core"
)

func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

func MarshalIndexEntry(entry *core.IndexEntry) []byte {
	buf := make([]byte, core.IndexEntryMUS.Size(*entry))
	core.IndexEntryMUS.Marshal(*entry, buf)
	return buf
}

func UnmarshalIndexEntry(data []byte) (*core.IndexEntry, error) {
	entry, _, err := core.IndexEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: index entry: %w", ErrSerializationFailed, err)
	}
	if len(entry.Metadata) == 0 {
		entry.Metadata = nil
	}
	entry.InsertedAt = utc(entry.InsertedAt)
	return &entry, nil
}

func MarshalManifest(manifest *core.Manifest) []byte {
	buf := make([]byte, core.ManifestMUS.Size(*manifest))
	core.ManifestMUS.Marshal(*manifest, buf)
	return buf
}

func UnmarshalManifest(data []byte) (*core.Manifest, error) {
	manifest, _, err := core.ManifestMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrSerializationFailed, err)
	}
	manifest.CreatedAt = utc(manifest.CreatedAt)
	manifest.UpdatedAt = utc(manifest.UpdatedAt)
	return &manifest, nil
}

// utc normalizes a decoded timestamp. Timestamps decode in local time, and
// the zero time must stay zero.
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}
