package util

import (
	"fmt"
	"os"

	"github.com/gen2brain/go-fitz"
)

// InspectPDF opens the file as a PDF and returns its page count. Files that
// are missing, unreadable or empty are rejected.
func InspectPDF(path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("no cv file on record")
	}
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("pdf %s has no pages", path)
	}
	return pages, nil
}
