// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package connections parses the connections string, the small DSL
// that configures one or more transports:
//
//	tcp(host=localhost,port=4228), file(filename="app logs.sil")
//
// A connections string is an ordered list of sections, each a protocol
// name followed by a parenthesized option list. Section order is
// preserved and becomes the fan-out dispatch order. Option values may
// be double-quoted; inside quotes, backslash escapes the quote
// character and itself, and commas and parentheses lose their
// structural meaning.
//
// Parse errors name the byte offset of the offending input so a
// misquoted value in a long string is findable.
package connections
