// Copyright 2026 venslabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package export

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// ID is a monitoring list identifier, a JSON string or number.
// The raw form is kept so it can be written back unchanged.
type ID struct {
	raw json.RawMessage
}

func StringID(s string) ID {
	b, _ := json.Marshal(s)
	return ID{raw: b}
}

func (id ID) String() string {
	var s string
	if err := json.Unmarshal(id.raw, &s); err == nil {
		return s
	}
	return string(id.raw)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("empty monitoring list id")
	}
	switch c := b[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
	default:
		return errors.Errorf("monitoring list id must be a string or number, got %s", b)
	}
	id.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if len(id.raw) == 0 {
		return []byte(`""`), nil
	}
	return id.raw, nil
}

// Record is one monitoring list detail object. Keys keep the order the
// service sent them in; values are kept as raw JSON.
type Record struct {
	keys   []string
	fields map[string]json.RawMessage
}

func (r Record) Len() int { return len(r.keys) }

func (r Record) Keys() []string { return r.keys }

func (r Record) Get(key string) (json.RawMessage, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Set replaces the value of key, appending key if it is new.
func (r *Record) Set(key string, value json.RawMessage) {
	if r.fields == nil {
		r.fields = make(map[string]json.RawMessage)
	}
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = value
}

func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Errorf("monitoring list details must be a JSON object, got %v", tok)
	}
	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		r.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(r.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
