// Package chunking splits page documents into bounded, overlapping chunks.
//
// A Policy selects one of two splitting strategies and carries the size,
// overlap and persistence directory that go with it:
//
//   - Recursive: character-based recursive splitting on paragraph, line and
//     word boundaries. Sizes are measured in runes.
//   - Token: model-token windows using the cl100k_base BPE. Sizes are measured
//     in tokens. BPE ranks are loaded from an embedded copy, so splitting never
//     touches the network.
//
// Policy values are only built through Recursive, Token or NewPolicy; the zero
// Policy is invalid. Splitting is deterministic: the same documents and policy
// always yield the same chunks with the same IDs.
package chunking
