// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package formatters renders validation results for output. Formatters
// register themselves with the default registry from their package init,
// so importing a formatter package makes its format available.
package formatters

import (
	"fmt"
	"strings"

	"cert-scan/internal/cert"
)

// Options defines configuration options for formatters.
type Options struct {
	Verbose bool
	NoColor bool
	// IncludePassed includes passed checks in detailed views.
	IncludePassed bool
}

// Formatter renders a batch of validation results.
type Formatter interface {
	Format(results []*cert.ValidationResult, options Options) (string, error)

	// Name returns the formatter's registry name (e.g. "json").
	Name() string

	// Description returns a brief description of the output.
	Description() string

	// FileExtension returns the recommended file extension.
	FileExtension() string
}

// Registry holds registered formatters.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates an empty formatter registry.
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[string]Formatter)}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(formatter Formatter) {
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	formatter, exists := r.formatters[name]
	return formatter, exists
}

// List returns all registered formatter names.
func (r *Registry) List() []string {
	var names []string
	for name := range r.formatters {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get retrieves a formatter from the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List lists all formatters in the default registry.
func List() []string {
	return DefaultRegistry.List()
}

// Export renders results in the named format; shared by the CLI and the
// web server.
func Export(format string, results []*cert.ValidationResult, options Options) (string, error) {
	formatter, exists := Get(format)
	if !exists {
		return "", fmt.Errorf("unsupported format %q. Available formats: %s", format, strings.Join(List(), ", "))
	}
	return formatter.Format(results, options)
}

// MimeType returns the MIME type for a format name.
func MimeType(name string) string {
	switch name {
	case "json":
		return "application/json"
	case "csv":
		return "text/csv"
	case "markdown":
		return "text/markdown"
	case "text":
		return "text/plain"
	}
	return "application/octet-stream"
}
