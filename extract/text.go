/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
)

func extractPlainText(_ context.Context, path string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}

	return strings.ToValidUTF8(string(body), ""), nil
}
