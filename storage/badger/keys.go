package badger

import (
	"fmt"

	"github.com/poiesic/vectorprep/core"
)

// Key prefixes for different data types
const (
	entryPrefix = "entry"
	manifestKey = "manifest"
)

// makeEntryKey generates a key for an index entry by ID.
func makeEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entryPrefix, id))
}

// entryScanPrefix matches every entry key and nothing else.
func entryScanPrefix() []byte {
	return []byte(entryPrefix + ":")
}
