// Package db provides the embedded catalog schema and seed data.
package db

import _ "embed"

// Schema is a text/template of the DDL for all catalog tables. It expects
// sanitized identifiers for the schema, tables and indexes.
//
//go:embed migrations/001_schema.sql
var Schema string

// Seed is the JSON seed catalog: the category list and sample products.
//
//go:embed seed/catalog.json
var Seed []byte
