// Package state provides named, file-backed JSON documents.
//
// Each store is a single JSON object persisted as <dir>/<name>.json. A
// Document is loaded whole on Open, mutated in memory, and written back whole
// by Save. Nothing is cached between calls: every Open re-reads the file.
package state

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/grovetools/scribe/errors"
)

// Entry is a single key/value pair of a document.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Document is the in-memory snapshot of one named store.
type Document struct {
	name   string
	path   string
	data   map[string]json.RawMessage
	exists bool
}

// Name returns the store name (e.g. "settings").
func (d *Document) Name() string {
	return d.name
}

// Path returns the backing file path.
func (d *Document) Path() string {
	return d.path
}

// Exists reports whether the backing file was present when the document was
// opened, or has since been saved.
func (d *Document) Exists() bool {
	return d.exists
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.data)
}

// Get returns the raw JSON value stored under key.
func (d *Document) Get(key string) (json.RawMessage, bool) {
	val, ok := d.data[key]
	if !ok {
		return nil, false
	}
	return cloneRaw(val), true
}

// Decode unmarshals the value stored under key into target.
// Returns false with no error when the key is absent.
func (d *Document) Decode(key string, target interface{}) (bool, error) {
	val, ok := d.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(val, target); err != nil {
		return true, errors.Serialization(d.name+"."+key, err)
	}
	return true, nil
}

// Set upserts a raw JSON value. Nothing is persisted until Save.
// An empty value is stored as JSON null.
func (d *Document) Set(key string, value json.RawMessage) {
	if len(bytes.TrimSpace(value)) == 0 {
		value = json.RawMessage("null")
	}
	d.data[key] = cloneRaw(value)
}

// SetValue marshals value and upserts it under key.
func (d *Document) SetValue(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Serialization(d.name+"."+key, err)
	}
	d.data[key] = raw
	return nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (d *Document) Delete(key string) {
	delete(d.data, key)
}

// Clear removes every key.
func (d *Document) Clear() {
	d.data = make(map[string]json.RawMessage)
}

// Entries returns a snapshot of all pairs, ordered by key.
func (d *Document) Entries() []Entry {
	entries := make([]Entry, 0, len(d.data))
	for k, v := range d.data {
		entries = append(entries, Entry{Key: k, Value: cloneRaw(v)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// Map returns a copy of the document as a plain map.
func (d *Document) Map() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(d.data))
	for k, v := range d.data {
		out[k] = cloneRaw(v)
	}
	return out
}

// Save writes the whole document to its backing file.
// The file is replaced atomically via a temp file in the same directory.
func (d *Document) Save() error {
	data, err := json.MarshalIndent(d.data, "", "  ")
	if err != nil {
		return errors.Serialization(d.name, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.ConfigDirUnavailable(dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+d.name+"-*.json.tmp")
	if err != nil {
		return errors.IOError("create temp file for", d.path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.IOError("write", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.IOError("write", d.path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return errors.IOError("chmod", d.path, err)
	}
	if err := os.Rename(tmpPath, d.path); err != nil {
		os.Remove(tmpPath)
		return errors.IOError("replace", d.path, err)
	}

	d.exists = true
	return nil
}

// load reads the backing file into d. A missing or empty file yields an
// empty document.
func (d *Document) load() error {
	d.data = make(map[string]json.RawMessage)

	raw, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.IOError("read", d.path, err)
	}
	d.exists = true

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return errors.Serialization(d.path, err)
	}
	if data != nil {
		d.data = data
	}
	return nil
}

func cloneRaw(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out
}
