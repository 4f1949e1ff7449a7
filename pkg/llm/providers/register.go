// Copyright 2025 Tom Barlow
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

package providers

import "github.com/aectech/rhcompute-mcp/pkg/llm"

func init() {
	// Factories are registered at import time but not instantiated.
	// Call llm.New to build one from config.
	llm.RegisterFactory("ollama", NewOllama)
	llm.RegisterFactory("openai", NewOpenAI)
	llm.RegisterFactory("anthropic", NewAnthropic)
	llm.RegisterFactory("bedrock", NewBedrock)
}
