// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadDocumentPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.txt")
	if err := os.WriteFile(path, []byte("Texas Sales and Use Tax Exemption Certification"), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Source != SourcePlainFile {
		t.Errorf("source = %s", doc.Source)
	}
	if doc.Confidence != 1.0 {
		t.Errorf("confidence = %v", doc.Confidence)
	}
	if !strings.Contains(doc.Text, "Exemption Certification") {
		t.Errorf("text = %q", doc.Text)
	}
}

func TestReadDocumentImageHasNoText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.jpg")
	if err := os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0xd9}, 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Source != SourceNone {
		t.Errorf("source = %s, want none so the caller tries the vision provider", doc.Source)
	}
	if doc.Text != "" {
		t.Errorf("text = %q", doc.Text)
	}
}

func TestReadDocumentUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.docx")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDocument(path); err == nil {
		t.Error("expected an error for an unsupported extension")
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	if _, err := ReadDocument(filepath.Join(t.TempDir(), "gone.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
