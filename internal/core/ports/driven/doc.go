// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedders, vector stores, and text
// extractors the pipeline core depends on.
package driven
