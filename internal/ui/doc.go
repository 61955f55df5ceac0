// Package ui renders human-oriented console output: command lifecycle
// messages, colored per-operation status lines and aligned report tables.
package ui
