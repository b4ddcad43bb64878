// Package knowledge holds the ecommerce knowledge base behind the advisory
// engine: a small fixed set of topic documents and a keyword-based ranked
// search over them.
//
// Documents are loaded once at construction, either from a configured
// directory of markdown files (one topic per file) or from the embedded
// defaults, and are immutable for the process lifetime. A Store is therefore
// safe for concurrent use without locking.
package knowledge
