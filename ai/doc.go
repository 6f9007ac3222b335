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

// Package ai provides abstractions for the managed model services searchrag uses.
//
// Two services are involved: an embedding model that turns page text and
// questions into vectors, and a text model that writes the final answer from
// retrieved pages. Both are reached through the Provider interface.
//
// # Implementation Packages
//
//   - ai/bedrock: Amazon Bedrock through langchaingo (Titan models by default)
//   - ai/mock: deterministic test doubles that need no network access
//
// Public constructors (bedrock.NewProvider) return interface types. Test
// constructors (mock.NewMockEmbedder) return concrete types so tests can
// inspect call counts and inject behavior.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithRegion("eu-central-1"))
//	provider, err := bedrock.NewProvider(awsCfg, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "What is ReAct?")
package ai
