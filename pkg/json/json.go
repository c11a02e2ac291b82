// Package json provides JSON serialization for Quasar, backed by
// goccy/go-json with encode buffers recycled through the adaptive pool.
package json

import (
	"bytes"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/quasar/pkg/pool"
	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

// Codec serializes values using a pooled buffer per call. Safe for
// concurrent use.
type Codec struct {
	buffers *pool.Pool[*bytes.Buffer]
}

// NewCodec creates a codec with its own buffer pool.
func NewCodec(opts ...pool.Option[*bytes.Buffer]) (*Codec, error) {
	cfg := pool.Config{
		InitialSize:     4,
		MinSize:         2,
		MaxSize:         32,
		GrowthFactor:    2.0,
		ShrinkFactor:    0.5,
		GrowthThreshold: 0.8,
		ShrinkThreshold: 0.2,
		WarmupEnabled:   true,
	}

	buffers, err := pool.New("json_buffers", func() *bytes.Buffer {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	}, func(b *bytes.Buffer) { b.Reset() }, cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &Codec{buffers: buffers}, nil
}

// Pool exposes the codec's buffer pool so it can be registered for
// analytics alongside the rest of the runtime's pools.
func (c *Codec) Pool() *pool.Pool[*bytes.Buffer] { return c.buffers }

// Marshal encodes v through a pooled buffer.
func (c *Codec) Marshal(v interface{}) ([]byte, error) {
	return c.encode(v, "", "")
}

// MarshalIndent encodes v through a pooled buffer with indentation.
func (c *Codec) MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return c.encode(v, prefix, indent)
}

func (c *Codec) encode(v interface{}, prefix, indent string) ([]byte, error) {
	buf := c.buffers.Acquire()
	defer c.buffers.Release(buf)

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if indent != "" || prefix != "" {
		enc.SetIndent(prefix, indent)
	}

	if err := enc.Encode(v); err != nil {
		return nil, qerrors.Wrap(err, qerrors.KindInternal, "json encode failed")
	}

	// Encode appends a newline; the returned slice must outlive the
	// buffer's return to the pool.
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	result := make([]byte, len(out))
	copy(result, out)
	return result, nil
}

// Marshal is a drop-in replacement for encoding/json.Marshal.
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal.
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}
