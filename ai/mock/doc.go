// Package mock provides a test double for the ai.Embedder interface.
//
// The mock lets tests run without an external embedding service and gives
// deterministic vectors: the same text always maps to the same vector.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("backend down")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
package mock
