// Package hierarchy turns a flat list of extracted concepts into a
// semantic hierarchy.
//
// The Builder links concepts into parent-child relationships when their
// embeddings are similar and the parent is materially more frequent,
// rejecting edges that would introduce cycles. It then assigns
// breadth-first levels from the roots, clusters embedded concepts by
// similarity, and scores how strongly the source text supports each
// concept.
package hierarchy
