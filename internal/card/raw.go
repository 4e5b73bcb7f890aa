// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines RawCard, the source-of-truth definition of a card.
//
// Why an ordered file list instead of a map?
//
// Every file that is neither the schema nor a template is registered with the
// builder as an asset, and registration must happen in declaration order.
// Files keeps the order it was built or decoded in, including when decoded
// from a JSON object.
package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// BaseCardURL is the built-in card every other card ultimately adopts from.
const BaseCardURL = "https://cardstack.com/base/base"

// File is one named source file of a card.
type File struct {
	Path    string
	Content string
}

// Files is an ordered list of card files.
type Files []File

// Get returns the content of the file at path.
func (fs Files) Get(path string) (string, bool) {
	for _, f := range fs {
		if f.Path == path {
			return f.Content, true
		}
	}
	return "", false
}

// Set replaces the content of an existing file or appends a new one.
func (fs *Files) Set(path, content string) {
	for i := range *fs {
		if (*fs)[i].Path == path {
			(*fs)[i].Content = content
			return
		}
	}
	*fs = append(*fs, File{Path: path, Content: content})
}

// MarshalJSON encodes the files as a JSON object, keeping their order.
func (fs Files) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Path)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Content)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of path to content, keeping key order.
func (fs *Files) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*fs = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("files must be a JSON object of path to content")
	}
	var out Files
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected file key %v", keyTok)
		}
		var content string
		if err := dec.Decode(&content); err != nil {
			return fmt.Errorf("file %q: %w", key, err)
		}
		out = append(out, File{Path: key, Content: content})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*fs = out
	return nil
}

// RawCard is a card definition as stored in a realm.
type RawCard struct {
	URL        string         `json:"url"`
	Schema     string         `json:"schema,omitempty"`
	Isolated   string         `json:"isolated,omitempty"`
	Embedded   string         `json:"embedded,omitempty"`
	Edit       string         `json:"edit,omitempty"`
	AdoptsFrom string         `json:"adoptsFrom,omitempty"`
	Files      Files          `json:"files,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// Template returns the local path of the template file for format f.
func (r *RawCard) Template(f Format) string {
	switch f {
	case Isolated:
		return r.Isolated
	case Embedded:
		return r.Embedded
	case Edit:
		return r.Edit
	}
	return ""
}

// IsBase reports whether r is the built-in base card.
func (r *RawCard) IsBase() bool {
	return r.URL == BaseCardURL
}

// Validate checks the structural invariants of a raw card: it has a URL,
// every referenced file exists, and it has either a schema or a parent.
func (r *RawCard) Validate() error {
	if r.URL == "" {
		return errors.New("card has no URL")
	}
	if r.Schema == "" && r.AdoptsFrom == "" && !r.IsBase() {
		return errors.New("card defines neither a schema nor a parent card")
	}
	refs := []struct{ role, path string }{
		{"schema", r.Schema},
		{string(Isolated), r.Isolated},
		{string(Embedded), r.Embedded},
		{string(Edit), r.Edit},
	}
	for _, ref := range refs {
		if ref.path == "" {
			continue
		}
		if _, ok := r.Files.Get(ref.path); !ok {
			return fmt.Errorf("%s file %q is not part of the card", ref.role, ref.path)
		}
	}
	return nil
}

// IsSourceFile reports whether path is the schema or a template of r.
func (r *RawCard) IsSourceFile(path string) bool {
	if path == r.Schema {
		return true
	}
	for _, f := range Formats {
		if r.Template(f) == path {
			return true
		}
	}
	return false
}
