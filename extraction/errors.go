package extraction

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided
	// to a component that needs one.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrUnknownStrategy is returned by the factory for a name outside
	// the known strategy set.
	ErrUnknownStrategy = errors.New("unknown extraction strategy")

	// ErrStrategyFailed wraps a failure inside a single strategy run.
	// The orchestrator logs it and excludes the strategy from fusion.
	ErrStrategyFailed = errors.New("strategy execution failed")

	// ErrNoDocuments is returned by corpus operations invoked with an
	// empty document slice.
	ErrNoDocuments = errors.New("at least one document required")
)
