// Package ai provides abstractions for the embedding service used by vectorprep.
//
// This package defines the Embedder interface and its configuration. The ingestion
// pipeline, the vector store and the searcher depend on the interface rather than on
// a concrete client.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible or Azure APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder) return INTERFACE types to enforce
// abstraction. Test utility constructors (mock.NewMockEmbedder) return CONCRETE
// types so tests can inject behavior and assert on call counts.
//
// # Credentials
//
// Host, API key, API type and version are explicit Config fields passed to the
// embedder constructor. Library code never reads them from the process environment;
// the command-line tool is responsible for collecting them.
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithEmbeddingHost("https://api.openai.com/v1"),
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "Hello world")
package ai
