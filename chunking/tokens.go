package chunking

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is the BPE used by the token policy.
const DefaultEncoding = "cl100k_base"

var (
	offlineOnce sync.Once

	encodingsMu sync.Mutex
	encodings   = map[string]*tiktoken.Tiktoken{}
)

// useOfflineBPE points tiktoken at the embedded BPE ranks instead of downloading them.
func useOfflineBPE() {
	offlineOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
}

func encoding(name string) (*tiktoken.Tiktoken, error) {
	useOfflineBPE()

	encodingsMu.Lock()
	defer encodingsMu.Unlock()
	if tk, ok := encodings[name]; ok {
		return tk, nil
	}
	tk, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %s: %w", name, err)
	}
	encodings[name] = tk
	return tk, nil
}

// CountTokens returns the number of tokens text encodes to under the named encoding.
// Special tokens are counted as ordinary text.
func CountTokens(encodingName, text string) (int, error) {
	tk, err := encoding(encodingName)
	if err != nil {
		return 0, err
	}
	return len(tk.EncodeOrdinary(text)), nil
}
