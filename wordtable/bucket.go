// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package wordtable

import "math/bits"

// wordBits is the width, in bits, of the machine word used for keys, probe
// links and bucket metadata. Go's uint is sized to match the platform
// register width, which is exactly the W the bucket layout is built around.
const wordBits = bits.UintSize

func init() {
	if wordBits != 32 && wordBits != 64 {
		panic("wordtable: unsupported word width; only 32-bit and 64-bit platforms are supported")
	}
}

const (
	// headBit marks a bucket as the home of a (possibly single-element)
	// collision chain. It occupies the top bit of meta.
	headBit = uint(1) << (wordBits - 1)
	// emptyBit marks a bucket as unoccupied. It occupies the bit directly
	// below headBit. A bucket never has both bits set.
	emptyBit = uint(1) << (wordBits - 2)
	// probeMask isolates the low W-2 bits of meta, which hold the index of
	// the next bucket in the owning chain's ring.
	probeMask = emptyBit - 1
)

// bucket is one slot of the backing array: a metadata word packing the
// HEAD/EMPTY flags and the probe link, plus the key and the caller's value.
//
// The value is expected to be a small, trivially-copyable payload: buckets
// are moved around wholesale (by value) during displacement, tail-splicing
// and resize, so anything with expensive copy semantics defeats the point of
// this layout.
type bucket[V any] struct {
	meta  uint
	key   uint
	value V
}

func emptyBucket[V any]() bucket[V] {
	return bucket[V]{meta: emptyBit}
}

func (b *bucket[V]) isEmpty() bool { return b.meta&emptyBit != 0 }
func (b *bucket[V]) isHead() bool  { return b.meta&headBit != 0 }

// link returns the probe-link field, i.e. the index of the next bucket in
// this bucket's ring. Valid only when the bucket is occupied.
func (b *bucket[V]) link() uint { return b.meta & probeMask }
