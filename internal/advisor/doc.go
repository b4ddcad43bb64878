// Package advisor implements the rule-based advisory engine: product
// recommendations, the assistant chat, and store insight reports.
//
// Every operation is a pure function of its inputs plus the immutable
// knowledge base; the engine holds no mutable state across calls and is safe
// for concurrent use.
package advisor
