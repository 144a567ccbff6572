// Package main provides the entry point for tickstate-cli.
//
// tickstate-cli inspects and writes partition logs, forks sessions offline,
// computes and applies deltas against a YAML schema, and calls the
// tickstate-server admin API.
//
// Usage:
//
//	tickstate-cli --data-dir /var/lib/tickstate/data log dump 3f
//	tickstate-cli diff --schema pong.yaml prev.json cur.json
//	tickstate-cli --server 127.0.0.1:7070 admin fork 3f
package main
