// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/paperflow/internal/httputil"
)

// DownloadPDF fetches url to destPath through a temporary file so a
// failed download never leaves a partial PDF behind.
func DownloadPDF(ctx context.Context, client *http.Client, url, destPath string, retry httputil.Policy) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating pdf directory: %w", err)
	}

	return retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/pdf")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
		}

		tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		tmpPath := tmpFile.Name()

		_, copyErr := io.Copy(tmpFile, resp.Body)
		closeErr := tmpFile.Close()
		if copyErr != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("writing download: %w", copyErr)
		}
		if closeErr != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("closing temp file: %w", closeErr)
		}

		if err := os.Rename(tmpPath, destPath); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("renaming temp file: %w", err)
		}
		return nil
	})
}

// ExtractText pulls plain text from every page of the PDF, joined with
// blank lines. Pages that fail to render are skipped; an unreadable
// file is an error the caller degrades from.
func ExtractText(pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", pdfPath, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("no extractable text in %s", pdfPath)
	}
	return strings.Join(pages, "\n\n"), nil
}
