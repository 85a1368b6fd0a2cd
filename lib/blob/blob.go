// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"bytes"
	"fmt"

	"github.com/zeebo/blake3"
)

// digestSize is the length of a blob digest in bytes.
const digestSize = 32

// maxSize caps the declared uncompressed payload length. Size arrives
// off the wire and sizes the decompression buffer, so it must be
// bounded before any allocation happens.
const maxSize = 64 << 20

// digestKey is the 32-byte key for BLAKE3 keyed hashing. Domain
// separation: the same bytes hashed elsewhere in a Holium node never
// collide with a blob digest. The value is the ASCII domain name,
// zero-padded, so it is recognizable in hex dumps.
var digestKey = []byte{
	'h', 'o', 'l', 'i', 'u', 'm', '.', 'b', 'l', 'o', 'b', 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Blob is a one-shot bulk payload attached to a single message. It
// exists only for the duration of that call and is never persisted by
// the client.
type Blob struct {
	// Compression is the algorithm applied to Data.
	Compression Compression `cbor:"compression"`

	// Size is the uncompressed payload length. Verified on every
	// read.
	Size int `cbor:"size"`

	// Digest is the keyed BLAKE3 digest of the uncompressed payload.
	Digest []byte `cbor:"digest"`

	// Data is the (possibly compressed) payload bytes.
	Data []byte `cbor:"data"`
}

// Encode wraps data in a Blob, compressing it when compression
// actually pays for itself. The input slice is not retained when
// compression applies; under CompressionNone it is carried as-is.
func Encode(data []byte) (*Blob, error) {
	if len(data) > maxSize {
		return nil, fmt.Errorf("blob: payload is %d bytes, limit %d", len(data), maxSize)
	}
	tag, compressed := selectCompression(data)

	if compressed == nil {
		var err error
		compressed, err = compress(data, tag)
		if err != nil {
			if isIncompressible(err) {
				tag = CompressionNone
				compressed = data
			} else {
				return nil, fmt.Errorf("blob: %w", err)
			}
		}
	}

	return &Blob{
		Compression: tag,
		Size:        len(data),
		Digest:      digest(data),
		Data:        compressed,
	}, nil
}

// Bytes returns the uncompressed payload, verifying the declared size
// and the digest. A mismatch means the blob was corrupted or
// misattributed in transit and is reported as an error, never as a
// short read.
func (b *Blob) Bytes() ([]byte, error) {
	if len(b.Digest) != digestSize {
		return nil, fmt.Errorf("blob: digest is %d bytes, want %d", len(b.Digest), digestSize)
	}
	if b.Size < 0 || b.Size > maxSize {
		return nil, fmt.Errorf("blob: declared size %d is outside [0, %d]", b.Size, maxSize)
	}
	data, err := decompress(b.Data, b.Compression, b.Size)
	if err != nil {
		return nil, fmt.Errorf("blob: %w", err)
	}
	if len(data) != b.Size {
		return nil, fmt.Errorf("blob: payload is %d bytes, header declares %d", len(data), b.Size)
	}
	if !bytes.Equal(digest(data), b.Digest) {
		return nil, fmt.Errorf("blob: digest mismatch on %d-byte payload", b.Size)
	}
	return data, nil
}

// digest computes the keyed BLAKE3 digest of data.
func digest(data []byte) []byte {
	hasher, err := blake3.NewKeyed(digestKey)
	if err != nil {
		// The key is a compile-time constant of the correct length.
		panic("blob: keyed hasher initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hasher.Sum(nil)
}
