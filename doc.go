// Package vectorprep prepares persistent vector indexes from PDF documents.
//
// Indexes are built by the ingestion package: documents are loaded page by
// page, split with either a recursive character policy or a token policy, and
// embedded through an OpenAI-compatible service. Each policy writes its own
// index directory.
//
// Database opens a finished index for reading. It reports the number of
// entries and creates searchers that embed queries with the same model the
// index was built with.
//
//	db, err := vectorprep.OpenDatabase(ctx, "data/vectordb/recursive",
//	    vectorprep.WithAIConfig(aiConfig))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	searcher, err := db.NewSearcher()
//	results, err := searcher.FindSimilar(ctx, "what is chunk overlap?", 5)
package vectorprep
