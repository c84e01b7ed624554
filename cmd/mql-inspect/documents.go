package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// maxLineSize is the longest line readDocuments accepts.
const maxLineSize = 16 << 20

// readDocuments reads one Extended JSON document per non-empty line of r.
func readDocuments(r io.Reader) ([]bsoncore.Document, error) {
	var docs []bsoncore.Document

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for line := 1; scanner.Scan(); line++ {
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		doc, err := parseDocument(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	return docs, scanner.Err()
}

func readDocumentsFile(name string) ([]bsoncore.Document, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	docs, err := readDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return docs, nil
}

// parseDocument converts relaxed or canonical Extended JSON to BSON.
func parseDocument(text []byte) (bsoncore.Document, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON(text, false, &d); err != nil {
		return nil, fmt.Errorf("invalid extended JSON: %w", err)
	}
	raw, err := bson.Marshal(d)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
