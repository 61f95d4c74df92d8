// Package proctor runs test scripts as child processes and keeps a
// durable history of their outcomes.
package proctor

// Version is the release version reported by the CLI, HTTP index and MCP server.
const Version = "1.0.0"
