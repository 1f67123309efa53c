// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// probePDF records structural metadata before text extraction: page count
// and whether the document is encrypted. Probe failures leave the document
// untouched; the text extractor reports its own errors.
func probePDF(path string, doc *Document) {
	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			doc.Encrypted = true
		}
		return
	}
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return
	}
	doc.PageCount = ctx.PageCount
}
