// Package vectordb is the persistent vector index written by ingestion pipelines.
//
// A Store lives in one directory and holds (vector, text, metadata) entries
// together with a manifest recording the splitter settings, the embedding model
// and the vector dimension the index was built with. Store satisfies the
// langchaingo vectorstores.VectorStore interface, so it can be handed to
// retrievers and chains that expect one.
//
// Embedding is batched inside AddDocuments; all entries of one call are written
// in a single badger write batch only after every batch has been embedded.
// Persist flushes the index to disk and records the manifest.
package vectordb
