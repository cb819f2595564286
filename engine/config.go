package engine

import "encoding/json"

// defaultMaxChunkSize is the number of rows processed per chunk when a
// caller does not ask for a specific batch size.
const defaultMaxChunkSize = 4096

// InferenceMode picks between the two numeric-inference behaviours the
// teacher's own readers disagree on (see spec Open Questions): one forces
// float64 for every numeric literal, the other infers int32 when every
// observed value is an integer. This is a caller-facing setting, not part
// of the core's type-inference contract, which always does the latter.
type InferenceMode uint8

const (
	// InferNarrowest infers int32 for all-integer literal streams and
	// widens to float64 only once a fractional value is seen. Default.
	InferNarrowest InferenceMode = iota
	// InferFloat64 always infers float64 for numeric literals.
	InferFloat64
)

// Config holds the engine's runtime knobs. It is a flat, JSON-serialisable
// struct in the same shape as the teacher's database.Config - a plain
// struct with defaulting logic in its constructor, even though this
// engine (unlike the teacher's) persists nothing to disk; a host service
// wrapping this library is expected to be the one that reads/writes the
// JSON file, this struct is just what it would marshal.
type Config struct {
	// MaxChunkSize bounds how many rows a single Chunk produced by an
	// upstream producer is expected to carry. Operators size their
	// scratch buffers (e.g. Filter's selection scratch) to this value.
	MaxChunkSize int `json:"max_chunk_size"`

	// BufferPoolEnabled turns on pooling of ColumnBuffers keyed by
	// (dtype, capacity, nullable). Correctness never depends on this.
	BufferPoolEnabled bool `json:"buffer_pool_enabled"`

	// BufferPoolFreeListSize bounds the number of buffers retained per
	// pool key.
	BufferPoolFreeListSize int `json:"buffer_pool_free_list_size"`

	// DictionaryLoadFactor is the load factor past which a Dictionary's
	// hash index is doubled. 0 means use the package default (0.75).
	DictionaryLoadFactor float64 `json:"dictionary_load_factor"`

	// Inference controls numeric literal type inference (see
	// InferenceMode).
	Inference InferenceMode `json:"inference_mode"`
}

// DefaultConfig returns a Config with the engine's defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		MaxChunkSize:           defaultMaxChunkSize,
		BufferPoolEnabled:      false,
		BufferPoolFreeListSize: 50,
		DictionaryLoadFactor:   0.75,
		Inference:              InferNarrowest,
	}
}

// Option mutates a Config; used by New to apply functional options on top
// of DefaultConfig.
type Option func(*Config)

// WithMaxChunkSize overrides the chunk size hint.
func WithMaxChunkSize(n int) Option {
	return func(c *Config) { c.MaxChunkSize = n }
}

// WithBufferPool enables buffer pooling with the given free-list size per
// pool key.
func WithBufferPool(freeListSize int) Option {
	return func(c *Config) {
		c.BufferPoolEnabled = true
		c.BufferPoolFreeListSize = freeListSize
	}
}

// WithDictionaryLoadFactor overrides the dictionary's rehash threshold.
func WithDictionaryLoadFactor(f float64) Option {
	return func(c *Config) { c.DictionaryLoadFactor = f }
}

// WithInferenceMode overrides numeric literal inference behaviour.
func WithInferenceMode(m InferenceMode) Option {
	return func(c *Config) { c.Inference = m }
}

// New builds a Config from DefaultConfig with the given options applied.
func New(opts ...Option) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = defaultMaxChunkSize
	}
	if c.DictionaryLoadFactor <= 0 {
		c.DictionaryLoadFactor = 0.75
	}
	return c
}

// MarshalJSON and UnmarshalJSON are inherited from the struct tags above;
// ToJSON/FromJSON are thin convenience wrappers mirroring the teacher's
// habit of encoding its Config via a plain json.Marshal call site.
func ToJSON(c *Config) ([]byte, error) {
	return json.Marshal(c)
}

func FromJSON(data []byte) (*Config, error) {
	c := DefaultConfig()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}
