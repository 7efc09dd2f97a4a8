package ai

import "errors"

// ErrEmbeddingUnavailable indicates the embedding service could not
// produce a vector. Callers treat this as a soft failure: the affected
// concept simply skips embedding-dependent processing.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")
