package mindmap

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/01moynul/renovation-mindmap/internal/models"
)

// CSVColumns is the header of the nodes export, in file order.
var CSVColumns = []string{
	"id", "node_id", "name", "parent_id", "details", "image", "img_url",
	"attachment_url", "attachment_name", "is_premium", "create_user_id", "parent_mindMap_id",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns data as UTF-8. Files saved by Excel on Chinese Windows
// are GBK, so anything that is not valid UTF-8 is decoded as GBK.
func DecodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode gbk: %w", err)
	}
	return out, nil
}

// ReadCSV parses the nodes CSV (first row is the header) into normalized records.
func ReadCSV(r io.Reader) ([]models.FlatRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text, err := DecodeText(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var raws []RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if isBlankRow(row) {
			continue
		}
		rec := make(RawRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		raws = append(raws, rec)
	}
	return NormalizeAll(raws), nil
}

// WriteCSV writes records in the CSVColumns layout, readable by ReadCSV.
func WriteCSV(w io.Writer, records []models.FlatRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(csvRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(rec models.FlatRecord) []string {
	premium := ""
	if rec.IsPremium != nil {
		premium = "0"
		if *rec.IsPremium {
			premium = "1"
		}
	}
	return []string{
		intText(rec.ID), intText(rec.NodeID), rec.Name, intText(rec.ParentID),
		deref(rec.Details), deref(rec.Image), FormatImageList(rec.ImgURL),
		deref(rec.AttachmentURL), deref(rec.AttachmentName), premium,
		intText(rec.CreateUserID), intText(rec.ParentMindMapID),
	}
}

func intText(p *int64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
