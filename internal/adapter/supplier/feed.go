// Package supplier downloads and parses the supplier's inventory feed.
package supplier

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rl1809/market-sync/internal/core/domain"
)

const (
	// The feed workbook opens with a letterhead block; the column names sit
	// on row 18 and data follows below.
	headerRow = 18

	colCode     = "Код"
	colQuantity = "Количество"
	colPrice    = "Цена"

	maxFeedBytes = 64 << 20
)

// FeedClient implements port.SupplierFeed over the supplier's published zip
// archive: one workbook inside, tabular rows keyed by the code, quantity and
// price columns.
type FeedClient struct {
	url  string
	http *http.Client
}

func NewFeedClient(url string, client *http.Client) *FeedClient {
	return &FeedClient{url: url, http: client}
}

func (f *FeedClient) FetchInventorySnapshot(ctx context.Context) ([]domain.SupplierRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransportTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransportConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed download: status %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read feed body: %v", domain.ErrTransportConnection, err)
	}
	return parseArchive(raw)
}

func parseArchive(raw []byte) ([]domain.SupplierRecord, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open feed archive: %w", err)
	}

	for _, file := range archive.File {
		if strings.HasSuffix(file.Name, ".xlsx") {
			rc, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", file.Name, err)
			}
			defer rc.Close()
			return parseWorkbook(rc)
		}
	}
	return nil, errors.New("feed archive contains no workbook")
}

func parseWorkbook(r io.Reader) ([]domain.SupplierRecord, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("workbook has %d rows, header expected on row %d", len(rows), headerRow)
	}

	codeIdx, qtyIdx, priceIdx := -1, -1, -1
	for i, name := range rows[headerRow-1] {
		switch strings.TrimSpace(name) {
		case colCode:
			codeIdx = i
		case colQuantity:
			qtyIdx = i
		case colPrice:
			priceIdx = i
		}
	}
	if codeIdx < 0 || qtyIdx < 0 || priceIdx < 0 {
		return nil, fmt.Errorf("header row missing columns %q, %q or %q", colCode, colQuantity, colPrice)
	}

	var records []domain.SupplierRecord
	for _, row := range rows[headerRow:] {
		code := canonicalCode(cell(row, codeIdx))
		if code == "" {
			continue
		}
		records = append(records, domain.SupplierRecord{
			Code:         code,
			QuantityText: strings.TrimSpace(cell(row, qtyIdx)),
			PriceText:    strings.TrimSpace(cell(row, priceIdx)),
		})
	}
	return records, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// canonicalCode stringifies a code cell. Numeric cells may come back from
// the sheet with a zero fraction ("12345.0"); that suffix is stripped so the
// code compares equal to the marketplace's offer id. Everything else is kept
// byte for byte: codes are matched by exact string equality, so "007" must
// stay "007".
func canonicalCode(raw string) string {
	raw = strings.TrimSpace(raw)
	head, frac, found := strings.Cut(raw, ".")
	if !found || !allDigits(head) || !allZeros(frac) {
		return raw
	}
	return head
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func allZeros(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '0' {
			return false
		}
	}
	return true
}
