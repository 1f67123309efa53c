// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxPages caps per-document processing; certificates are short and a
// longer PDF is usually a misfiled batch scan.
const maxPages = 20

// readPDF extracts the text layer of a PDF. Short extractions fail the
// quality gate and come back as SourceNone for the vision fallback.
func readPDF(path string) (*Document, error) {
	doc := &Document{Path: path, Source: SourceNone}
	probePDF(path, doc)
	if doc.Encrypted {
		return doc, nil
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	pages := r.NumPage()
	if doc.PageCount == 0 {
		doc.PageCount = pages
	}
	if pages > maxPages {
		pages = maxPages
	}

	var buf bytes.Buffer
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := pageText(p)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}

	if fields := formFields(r); len(fields) > 0 {
		doc.FormFields = fields
		for name, value := range fields {
			buf.WriteString("\n")
			buf.WriteString(name)
			buf.WriteString(": ")
			buf.WriteString(value)
		}
	}

	text := cleanText(buf.String())
	if len(text) < minTextLayerChars {
		// Scanned certificate: the few stray characters are artifacts,
		// not content.
		return doc, nil
	}
	doc.Text = text
	doc.Source = SourceTextLayer
	doc.Confidence = 1.0
	return doc, nil
}

// pageText reads a page row by row so label/value pairs keep their line
// structure; it falls back to plain extraction when rows are unavailable.
func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return p.GetPlainText(nil)
	}

	sorted := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sorted = append(sorted, row)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return averageY(sorted[i].Content) < averageY(sorted[j].Content)
	})

	var buf bytes.Buffer
	for _, row := range sorted {
		line := rowText(row.Content)
		if strings.TrimSpace(line) != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	return buf.String(), nil
}

func averageY(elements []pdf.Text) float64 {
	if len(elements) == 0 {
		return 0
	}
	var total float64
	for _, e := range elements {
		total += e.Y
	}
	return total / float64(len(elements))
}

// rowText joins a row's text elements left to right, inserting spaces
// where the horizontal gap exceeds 20% of the font size.
func rowText(elements []pdf.Text) string {
	sorted := make([]pdf.Text, len(elements))
	copy(sorted, elements)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var buf bytes.Buffer
	for i, e := range sorted {
		buf.WriteString(e.S)
		if i == len(sorted)-1 {
			continue
		}
		gap := sorted[i+1].X - (e.X + e.W)
		fontSize := e.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}
		if gap > fontSize*0.2 {
			buf.WriteString(" ")
		}
	}
	return buf.String()
}

// formFields reads AcroForm field values. Fill-in certificate forms often
// keep their content here rather than in the page text.
func formFields(r *pdf.Reader) map[string]string {
	root := r.Trailer().Key("Root")
	if root.IsNull() {
		return nil
	}
	acroForm := root.Key("AcroForm")
	if acroForm.IsNull() {
		return nil
	}
	fields := acroForm.Key("Fields")
	if fields.IsNull() || fields.Kind() != pdf.Array {
		return nil
	}

	out := make(map[string]string)
	for i := 0; i < fields.Len(); i++ {
		field := fields.Index(i)
		if field.IsNull() || field.Kind() != pdf.Dict {
			continue
		}
		name, value := fieldNameValue(field)
		if name != "" && value != "" {
			out[name] = value
		}
	}
	return out
}

func fieldNameValue(field pdf.Value) (string, string) {
	var name, value string
	if t := field.Key("T"); !t.IsNull() && t.Kind() == pdf.String {
		name = t.Text()
	}
	value = valueText(field.Key("V"))
	if value == "" {
		value = valueText(field.Key("DV"))
	}
	return name, value
}

func valueText(v pdf.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case pdf.String:
		return v.Text()
	case pdf.Name:
		return v.Name()
	}
	return ""
}

// cleanText trims each line and drops empties while preserving the line
// structure the field extractor depends on.
func cleanText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
