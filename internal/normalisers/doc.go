// Package normalisers turns raw source files into clean text.
//
// Each supported format (plain text, JSON, PDF) has an extractor that
// produces raw text; CleanText then normalises whitespace so chunk
// boundaries are stable across platforms and encodings.
package normalisers
