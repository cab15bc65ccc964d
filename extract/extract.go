/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package extract pulls plain text out of uploaded lab report documents.
package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MIME types of the supported document formats.
const (
	MIMEPDF       = "application/pdf"
	MIMEDOC       = "application/msword"
	MIMEDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPlainText = "text/plain"
)

var (
	// ErrUnsupportedType is returned for documents no extractor handles.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrNoText is returned when a document contains no readable text.
	ErrNoText = errors.New("document contains no readable text")
)

// Extractor returns the text of the document stored at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Registry maps MIME types to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns a registry with the PDF, Word, spreadsheet and plain
// text extractors.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}

	r.Register(MIMEPDF, ExtractorFunc(extractPDF))
	r.Register(MIMEDOCX, ExtractorFunc(extractDOCX))
	r.Register(MIMEDOC, ExtractorFunc(extractDOC))
	r.Register(MIMEXLSX, ExtractorFunc(extractXLSX))
	r.Register(MIMEPlainText, ExtractorFunc(extractPlainText))

	return r
}

// Register sets the extractor for a MIME type.
func (r *Registry) Register(mimeType string, e Extractor) {
	r.extractors[normalizeMIME(mimeType)] = e
}

// Supports reports whether a MIME type has an extractor.
func (r *Registry) Supports(mimeType string) bool {
	_, ok := r.extractors[normalizeMIME(mimeType)]
	return ok
}

// Extract returns the trimmed text of the document at path. Documents that
// yield no text fail with ErrNoText.
func (r *Registry) Extract(ctx context.Context, mimeType, path string) (string, error) {
	e, ok := r.extractors[normalizeMIME(mimeType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := e.Extract(ctx, path)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}

	return text, nil
}

var extensionTypes = map[string]string{
	".pdf":  MIMEPDF,
	".doc":  MIMEDOC,
	".docx": MIMEDOCX,
	".xlsx": MIMEXLSX,
	".txt":  MIMEPlainText,
}

// DetectType resolves the MIME type of an upload from its declared content
// type, falling back to the file extension when the client sent a generic
// type.
func DetectType(filename, declared string) string {
	declared = normalizeMIME(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}

	return declared
}

// Extension returns the canonical file extension for a MIME type.
func Extension(mimeType string) string {
	mimeType = normalizeMIME(mimeType)
	for ext, t := range extensionTypes {
		if t == mimeType {
			return ext
		}
	}

	return ""
}

func normalizeMIME(value string) string {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}

	return mediaType
}
