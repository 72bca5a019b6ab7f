// Package loader turns file system locations into page-level source documents.
//
// A Location is either a directory, whose regular entries are all treated as
// documents, or an explicit list of files. A DocumentSource parses one path
// into one core.SourceDocument per page. The default source reads PDFs through
// langchaingo's document loader.
//
// Every failure is reported as a core.StageError of kind core.ErrDocumentLoad
// carrying the offending path.
package loader
