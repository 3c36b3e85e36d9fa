// Package pdf splits an uploaded CIM into per-page documents for the OCR
// boundary, which annotates one page at a time.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// SplitPages returns one single-page PDF per page of doc, in page order.
// maxPages caps the work for oversized uploads; 0 means no cap.
func SplitPages(doc []byte, maxPages int) ([][]byte, error) {
	count, err := api.PageCount(bytes.NewReader(doc), nil)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	if maxPages > 0 && count > maxPages {
		count = maxPages
	}

	pages := make([][]byte, 0, count)
	for i := 1; i <= count; i++ {
		var buf bytes.Buffer
		if err := api.Trim(bytes.NewReader(doc), &buf, []string{strconv.Itoa(i)}, nil); err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, buf.Bytes())
	}
	return pages, nil
}
