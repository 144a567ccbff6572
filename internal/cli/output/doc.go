// Package output renders tickstate-cli results as table, JSON or YAML.
//
// Values that know how to lay themselves out implement Tabular; anything
// else falls back to indented JSON in table mode.
package output
