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

/*
Package mcp is the chat side of the Model Context Protocol: it connects to
the rhino and weather servers (or any other streamable HTTP MCP server)
and exposes their tools to the agent.

# Overview

  - Client: one streamable HTTP connection, with optional bearer auth and
    handlers for the server-initiated sampling, elicitation and roots
    requests
  - Hub: a set of clients connected together, with their tools merged
  - Tool adapter: presents an MCP tool as a tools.Tool

# Connecting

	hub, errs := mcp.Connect(ctx, []mcp.ClientConfig{
	    {URL: "http://localhost:8000/mcp", BearerToken: token},
	    {URL: "http://localhost:8001/mcp"},
	}, logger)
	for _, err := range errs {
	    fmt.Println(err) // one *ServerError per unreachable server
	}
	defer hub.Close()

	reg := tools.NewRegistry()
	n, err := hub.Register(ctx, reg)

# Tool names

Tools keep the names their server gives them. When two servers expose a
tool with the same name, both copies are renamed to <server>.<tool>.

# Server requests

Servers may call back into the client while a tool runs. Sampler answers
sampling/createMessage with the chat's LLM provider, ElicitFunc adapts a
prompt function to elicitation/create, and Roots answers roots/list with
a fixed set of directories.

Subpackages server, rhino and weather hold the server side.
*/
package mcp
