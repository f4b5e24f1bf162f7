// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package filters narrows query result datasets with --filter expressions.
//
// An expression is key, operand, value, with an optional ! ahead of the
// operand to negate it:
//
//	model=gpt-4o        model equals gpt-4o
//	name^acme.          name starts with acme.
//	name!@test          name does not contain test
//	model~^gpt-         model matches the regex ^gpt-
//	record-count>5      numeric comparison, < works the same way
//	variables/support   JSON path present in the value
//
// Keys name output columns, the OutputKey side of the attrs package, and
// resolve back to drill paths before comparison. Two kinds of key get
// special treatment: a leading underscore marks an expression the service
// already applied, so it is skipped locally, and the bare key "unbound"
// runs the placeholder binding check against the prompt content instead of
// comparing a projected attribute.
//
// BuildFilters parses a spec into expressions. Entries join on commas
// unless PEXCTL_FILTER_DELIM names another delimiter, and an entry that
// does not parse warns and drops rather than failing the command, as does
// a filter naming a column the attr list does not carry. FilterDataset
// then keeps the rows that survive every expression, projected down to the
// attr list's columns.
package filters
