// Package state keeps per-chat conversation sessions for multi-step flows.
// Each chat has at most one session; handlers for a chat run one at a time.
package state
