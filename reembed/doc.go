// Package reembed rebuilds the vectors of an existing index with another
// embedding model.
//
// Entries are streamed from a source index in batches, their stored text is
// embedded again, and the results are written to a target index together
// with a manifest naming the new model and dimension. The source index is
// only read, so a failed run leaves it usable.
package reembed
