// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cert-scan/internal/cert"
	"cert-scan/internal/dedupe"
	"cert-scan/internal/ingest"
	"cert-scan/internal/parallel"
)

var supportedExtensions = map[string]bool{
	".pdf": true, ".txt": true, ".text": true,
	".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true,
}

// CollectFiles lists the certificate files under path. A file path returns
// itself; a directory is walked, optionally recursively.
func CollectFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if p != path && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(p))] {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}

// ValidateFile ingests and validates one certificate file. Unreadable or
// textless documents become NEEDS_HUMAN_REVIEW results rather than errors;
// only filesystem-level failures surface as errors.
func (p *Pipeline) ValidateFile(ctx context.Context, path string, opts Options) (*cert.ValidationResult, error) {
	doc, err := ingest.ReadDocument(path)
	if err != nil {
		return nil, err
	}
	if doc.Encrypted {
		return p.ReviewResult(path, "Document is an encrypted PDF and cannot be read."), nil
	}
	if doc.Source == ingest.SourceNone {
		return p.ReviewResult(path, "Document has no machine-readable text layer; route the scan through OCR or review it manually."), nil
	}
	if opts.SourceFile == "" {
		opts.SourceFile = path
	}
	result := p.ValidateText(ctx, doc.Text, opts)
	mergeTextLayerConfidence(doc, result)
	return result, nil
}

// mergeTextLayerConfidence lifts the extraction confidence to the text
// layer's when the layer is the more certain of the two. A clean embedded
// text layer vouches for fields the label matcher was unsure about.
func mergeTextLayerConfidence(doc *ingest.Document, result *cert.ValidationResult) {
	if doc.Source == ingest.SourceTextLayer && doc.Confidence > result.Fields.ExtractionConfidence {
		result.Fields.ExtractionConfidence = doc.Confidence
	}
}

// ValidateBatch validates a set of files on a worker pool, waits for every
// result, and then runs duplicate detection over the whole batch. Results
// come back ordered by source file.
func (p *Pipeline) ValidateBatch(ctx context.Context, files []string, workers int, opts Options) []*cert.ValidationResult {
	if workers < 1 {
		workers = 1
	}

	processor := func(ctx context.Context, path string) (*cert.ValidationResult, error) {
		return p.ValidateFile(ctx, path, Options{StateOverride: opts.StateOverride})
	}
	pool := parallel.NewWorkerPool(workers, processor, p.observer)
	pool.Start()

	go func() {
		for i, f := range files {
			pool.Submit(&parallel.Job{JobID: fmt.Sprintf("job-%d", i), FilePath: f})
		}
		pool.CloseJobs()
	}()

	done := make(chan []*cert.ValidationResult, 1)
	go func() {
		var results []*cert.ValidationResult
		for res := range pool.Results() {
			if res.Error != nil {
				results = append(results, p.ReviewResult(res.FilePath,
					fmt.Sprintf("Could not read document: %v.", res.Error)))
				continue
			}
			results = append(results, res.Outcome)
		}
		done <- results
	}()

	pool.Stop()
	results := <-done

	// Duplicate detection needs the complete batch; this is the barrier.
	sort.Slice(results, func(i, j int) bool {
		return results[i].SourceFile < results[j].SourceFile
	})
	dedupe.MarkDuplicates(results)
	return results
}
