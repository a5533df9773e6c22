package project

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Marshal returns doc as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode reads a document and checks its version.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Check(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Unmarshal parses a document and checks its version.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if err := doc.Check(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewPathError("load", path, err)
	}
	doc, err := Unmarshal(data)
	if err != nil {
		return nil, NewPathError("load", path, err)
	}
	return doc, nil
}

// Save writes a document file atomically: the data goes to a temporary
// file in the same directory, which is then renamed over path.
func Save(path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return NewPathError("save", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewPathError("save", path, err)
	}
	tmp, err := os.CreateTemp(dir, ".cutline-tmp-*")
	if err != nil {
		return NewPathError("save", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return NewPathError("save", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return NewPathError("save", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return NewPathError("save", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return NewPathError("save", path, err)
	}
	return nil
}
