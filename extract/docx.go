/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

func extractDOCX(_ context.Context, path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return "", fmt.Errorf("%w: not a Word document", ErrUnsupportedType)
		}

		return "", fmt.Errorf("failed to open Word document: %w", err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != docxBody {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document body: %w", err)
		}
		defer rc.Close()

		return wordprocessingText(rc)
	}

	return "", fmt.Errorf("%w: missing %s", ErrUnsupportedType, docxBody)
}

// extractDOC handles legacy .doc uploads. Files saved as .doc by modern
// editors are often WordprocessingML archives; true binary documents are
// rejected.
func extractDOC(ctx context.Context, path string) (string, error) {
	text, err := extractDOCX(ctx, path)
	if errors.Is(err, ErrUnsupportedType) {
		return "", fmt.Errorf("%w: legacy binary .doc files are not supported, save the report as .docx or PDF", ErrUnsupportedType)
	}

	return text, err
}

// wordprocessingText collects w:t runs, separating paragraphs with newlines.
func wordprocessingText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		sb     strings.Builder
		inText bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("failed to parse document body: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
