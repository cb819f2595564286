package column

import (
	"bytes"
	"hash/fnv"
)

// dictNullIndex is the sentinel 32-bit index used for an absent/null
// string value in a column buffer that carries no null bitmap (spec
// ch. 3: ColumnBuffer).
const dictNullIndex = uint32(0xFFFFFFFF)

// entry is one (offset, length) pair into the dictionary's byte arena.
type entry struct {
	offset uint32
	length uint32
}

// Dictionary is a string-interning structure producing stable 32-bit
// indices. Storage is a growable byte arena of concatenated UTF-8
// payloads plus a parallel (offset, length) table; lookups go through an
// open-addressed chained hash table keyed by FNV-1a over the raw bytes,
// the same hash family the teacher already reaches for in
// column.ChunkStrings.Hash and column.aggregations.go's distinct-value
// tracking.
//
// A Dictionary has no direct analogue in the teacher, which stores each
// chunk's strings inline (byte arena + offsets, no interning, no
// sharing across chunks); it is this repo's own construction, grounded
// on the teacher's existing hashing idiom applied to a new problem.
type Dictionary struct {
	arena   []byte
	entries []entry

	buckets    []int32 // head of each hash chain, -1 = empty
	chainNext  []int32 // parallel to entries: next link in the chain, -1 = end
	loadFactor float64
}

const dictInitialBuckets = 16

// NewDictionary creates an empty dictionary. loadFactor <= 0 defaults to
// 0.75, mirroring engine.Config.DictionaryLoadFactor.
func NewDictionary(loadFactor float64) *Dictionary {
	if loadFactor <= 0 {
		loadFactor = 0.75
	}
	d := &Dictionary{
		loadFactor: loadFactor,
		buckets:    make([]int32, dictInitialBuckets),
	}
	for i := range d.buckets {
		d.buckets[i] = -1
	}
	return d
}

func fnv1a(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

func (d *Dictionary) bucketFor(h uint64) int {
	return int(h & uint64(len(d.buckets)-1))
}

// Len returns the number of distinct interned values.
func (d *Dictionary) Len() int { return len(d.entries) }

// Lookup returns the index of b if already interned, and whether it was
// found - without mutating the dictionary.
func (d *Dictionary) Lookup(b []byte) (uint32, bool) {
	h := fnv1a(b)
	bucket := d.bucketFor(h)
	for i := d.buckets[bucket]; i != -1; i = d.chainNext[i] {
		e := d.entries[i]
		if bytes.Equal(d.arena[e.offset:e.offset+e.length], b) {
			return uint32(i), true
		}
	}
	return 0, false
}

// Intern returns the stable index for b, assigning a new one if b has
// never been seen. intern(x); intern(x); intern(y); intern(x) yields
// indices a, a, b, a with a != b when x != y (spec ch. 8).
func (d *Dictionary) Intern(b []byte) uint32 {
	if idx, ok := d.Lookup(b); ok {
		return idx
	}
	return d.insert(b)
}

func (d *Dictionary) insert(b []byte) uint32 {
	if float64(len(d.entries)+1) > d.loadFactor*float64(len(d.buckets)) {
		d.rehash()
	}
	idx := uint32(len(d.entries))
	offset := uint32(len(d.arena))
	d.arena = append(d.arena, b...)
	d.entries = append(d.entries, entry{offset: offset, length: uint32(len(b))})

	h := fnv1a(b)
	bucket := d.bucketFor(h)
	d.chainNext = append(d.chainNext, d.buckets[bucket])
	d.buckets[bucket] = int32(idx)
	return idx
}

// rehash doubles the bucket table and re-threads every existing entry's
// chain link - allowed only while no chunk is mid-parse (spec ch. 9); the
// engine never rehashes concurrently with anything reading this
// dictionary, since chunk production and dictionary mutation happen on
// the same single thread (spec ch. 5).
func (d *Dictionary) rehash() {
	newSize := len(d.buckets) * 2
	newBuckets := make([]int32, newSize)
	for i := range newBuckets {
		newBuckets[i] = -1
	}
	mask := uint64(newSize - 1)
	for i, e := range d.entries {
		h := fnv1a(d.arena[e.offset : e.offset+e.length])
		bucket := int(h & mask)
		d.chainNext[i] = newBuckets[bucket]
		newBuckets[bucket] = int32(i)
	}
	d.buckets = newBuckets
}

// Get returns the byte payload for idx.
func (d *Dictionary) Get(idx uint32) []byte {
	e := d.entries[idx]
	return d.arena[e.offset : e.offset+e.length]
}

// GetString returns the string payload for idx.
func (d *Dictionary) GetString(idx uint32) string {
	return string(d.Get(idx))
}

// Compare does a byte-lexicographic comparison of the payloads at two
// dictionary indices (spec ch. 3: "comparison between two dictionary
// indices is byte-lexicographic on the referenced payloads").
func (d *Dictionary) Compare(i, j uint32) int {
	return bytes.Compare(d.Get(i), d.Get(j))
}

// Reindex returns the index in dst that denotes the same bytes as idx
// does in d, interning them into dst if necessary. Used whenever a value
// crosses from one chunk's dictionary into another's (GroupBy with string
// keys, HashJoin, Concat of chunks with differing dictionaries).
func (d *Dictionary) Reindex(idx uint32, dst *Dictionary) uint32 {
	if d == dst {
		return idx
	}
	return dst.Intern(d.Get(idx))
}
