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


// Package extraction implements concept extraction strategies and their
// orchestration.
//
// Three strategies are provided behind the Strategy interface:
//
//   - rule_based: noun-phrase shapes, Hearst hypernym patterns, and
//     domain ontology lookup. Deterministic, no external services.
//   - statistical: TF-IDF term weighting, TextRank centrality, and
//     topic modeling across document sets.
//   - embedding_based: candidate phrases embedded and grouped by vector
//     similarity. Requires an ai.Embedder.
//
// The Orchestrator runs all strategies over the same text, applies
// configured per-strategy weights, consolidates duplicates, and returns
// a single ranked result. One strategy failing does not fail the run.
//
// # Usage
//
//	orch, err := extraction.NewOrchestrator(provider.Embedder())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer orch.Release()
//
//	result, err := orch.Extract(ctx, text, core.DefaultStrategyConfiguration())
package extraction
