// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ingest reads certificate documents from disk and produces raw
// text for the pipeline. PDFs with a usable text layer are read directly;
// image scans carry no text and are handed to the vision provider. OCR is
// out of scope here.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TextSource records where a document's text came from.
type TextSource string

const (
	SourceTextLayer TextSource = "text_layer"
	SourcePlainFile TextSource = "plain_file"
	SourceVision    TextSource = "vision"
	SourceNone      TextSource = "none"
)

// minTextLayerChars is the quality gate: a PDF "text layer" shorter than
// this is almost always a scan with stray OCR artifacts, not real text.
const minTextLayerChars = 50

// Document is an ingested certificate ready for extraction.
type Document struct {
	Path       string
	Text       string
	Source     TextSource
	Confidence float64
	PageCount  int
	Encrypted  bool
	FormFields map[string]string
	// CaptureTime is the camera timestamp for photographed certificates.
	CaptureTime *time.Time
}

// ReadDocument ingests one file by extension. Unsupported types return an
// error; a scanned PDF or image returns a Document with SourceNone so the
// caller can try the vision provider.
func ReadDocument(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".txt", ".text":
		return readPlain(path)
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
		return readImage(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func readPlain(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Document{
		Path:       path,
		Text:       string(data),
		Source:     SourcePlainFile,
		Confidence: 1.0,
		PageCount:  1,
	}, nil
}

func readImage(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc := &Document{
		Path:      path,
		Source:    SourceNone,
		PageCount: 1,
	}
	// Capture metadata is best effort; a stripped JPEG is still usable.
	if t, err := captureTime(path); err == nil {
		doc.CaptureTime = &t
	}
	return doc, nil
}
