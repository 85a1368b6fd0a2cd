// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package blob implements the out-of-band payload that accompanies a
// message when the data is too large to belong in the primary
// envelope: stored values, query result sets, bound parameter lists,
// script output.
//
// A blob travels inside the message that owns it, so its correlation
// with a request/response pair is the message's call id — there is no
// shared side channel and no temporal-adjacency hazard. Each blob
// carries its payload (optionally LZ4- or zstd-compressed), the
// uncompressed size, and a keyed BLAKE3 digest of the uncompressed
// bytes. Consumers get the original bytes back or a loud error; a
// truncated or corrupted payload is never silently delivered.
package blob
