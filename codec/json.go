package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// JSON works for typical structs, maps and slices. Time, complex numbers,
// funcs, channels, etc may not round-trip. If you need custom encoding
// (e.g. protobuf/msgpack), implement Codec and set it on the snapshot
// writer.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
var Default Codec = JSON{}
