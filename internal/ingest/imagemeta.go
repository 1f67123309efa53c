// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// captureTime reads the camera timestamp from a photographed certificate.
// The timestamp helps reviewers judge when a paper certificate was
// actually collected, since the scan itself carries no text dates yet.
func captureTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding EXIF: %w", err)
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("no capture timestamp: %w", err)
	}
	return t, nil
}
