// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package graphdb is the client façade for the node's graph database
// service.
//
// A DB handle is bound to one named database. Statement parameters,
// record batches, and result sets are bulk values; they travel in the
// blob channel, encoded with the envelope codec. Read accepts query
// text only and returns rows; Statement accepts any text the engine
// supports.
package graphdb
