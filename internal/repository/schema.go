package repository

import _ "embed"

// Schema is the reference DDL for the tables this package reads and writes.
// Migrations are owned elsewhere; integration tests apply it to a scratch
// database.
//
//go:embed schema.sql
var Schema string
