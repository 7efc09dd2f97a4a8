// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidConcept indicates a Concept failed validation.
	ErrInvalidConcept = errors.New("invalid concept")

	// ErrEmptyConceptText indicates the concept text is empty after normalization.
	ErrEmptyConceptText = errors.New("concept text cannot be empty")

	// ErrNegativeFrequency indicates a frequency below zero.
	ErrNegativeFrequency = errors.New("frequency cannot be negative")

	// ErrScoreOutOfRange indicates a relevance or evidence score outside [0,1].
	ErrScoreOutOfRange = errors.New("score must be between 0 and 1")

	// ErrNegativeLevel indicates a concept level below zero.
	ErrNegativeLevel = errors.New("concept level cannot be negative")

	// ErrUnknownExtractionMethod indicates an extraction method outside the known set.
	ErrUnknownExtractionMethod = errors.New("unknown extraction method")

	// ErrSelfReference indicates a concept listing itself as its own parent or child.
	ErrSelfReference = errors.New("concept cannot reference itself")

	// ErrInvalidVector indicates an EmbeddingVector failed validation.
	ErrInvalidVector = errors.New("invalid embedding vector")

	// ErrEmptyVector indicates a vector with no components.
	ErrEmptyVector = errors.New("vector must have at least one dimension")

	// ErrNonFiniteValue indicates a NaN or infinite vector component.
	ErrNonFiniteValue = errors.New("vector values must be finite")

	// ErrDimensionMismatch indicates two vectors of unequal dimension were compared.
	ErrDimensionMismatch = errors.New("vector dimensions do not match")

	// ErrInvalidConfiguration indicates a malformed StrategyConfiguration.
	ErrInvalidConfiguration = errors.New("invalid strategy configuration")
)
