// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm applied to a blob payload.
// These values are protocol constants — changing them breaks wire
// compatibility.
type Compression uint8

const (
	// CompressionNone carries the payload uncompressed. Used for
	// small payloads and for data that does not compress.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression: the fast default for
	// binary payloads of unknown shape.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level: better ratios
	// for text-like payloads (CBOR record sets, script output).
	CompressionZstd Compression = 2
)

// String returns the human-readable name of a compression tag.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// probeThreshold is the payload size below which compression is not
// attempted. Tiny payloads gain nothing and pay header overhead.
const probeThreshold = 128

// zstdEncoder and zstdDecoder are shared across calls. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("blob: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("blob: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible is returned when compressed output would not be
// smaller than the input. The caller falls back to CompressionNone.
var errIncompressible = errors.New("data is incompressible")

func isIncompressible(err error) bool {
	return errors.Is(err, errIncompressible)
}

// selectCompression probes the payload with zstd and picks a tag by
// ratio: strong compression takes zstd, marginal compression takes
// the cheaper LZ4, anything else stays uncompressed. When zstd wins,
// the probe output is returned so the encode is not repeated.
func selectCompression(data []byte) (Compression, []byte) {
	if len(data) < probeThreshold {
		return CompressionNone, nil
	}

	probe := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(probe))

	switch {
	case ratio >= 1.5:
		return CompressionZstd, probe
	case ratio >= 1.1:
		return CompressionLZ4, nil
	default:
		return CompressionNone, nil
	}
}

func compress(data []byte, tag Compression) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		destination := make([]byte, bound)
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func decompress(data []byte, tag Compression, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(data, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return destination[:read], nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}
