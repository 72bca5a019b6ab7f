// Package ingestion turns a location of PDF documents into a persisted vector index.
//
// A Pipeline is built from a Config naming the documents, exactly one splitter
// policy and the embedding model. Construction validates everything up front,
// so a bad chunk size or overlap fails before any document is read.
//
// BuildAndPersist runs the stages strictly in order:
//   - load every document, failing fast on the first unreadable path
//   - split pages into chunks with the configured policy
//   - open the index in the policy's directory and embed all chunks
//   - write the entries, flush to disk and record the manifest
//
// The index directory is only created once loading and chunking have
// succeeded. RunAll builds several pipelines concurrently on a worker pool;
// Retry is a caller-side helper that re-runs a build after transient
// embedding failures.
//
// Every error returned by this package is a *core.StageError matching one of
// core.ErrConfiguration, core.ErrDocumentLoad, core.ErrEmbeddingBackend or
// core.ErrStorage.
package ingestion
