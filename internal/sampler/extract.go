package sampler

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	pdfMaxPages   = 2
	xlsxMaxRows   = 20
	xlsxMaxCols   = 10
	xlsxMaxCells  = 50
	xmlMaxParas   = 10
	textPrefixLen = 10 * 1024
)

// extractPDF pulls plain text from the first pages of a PDF.
func extractPDF(path string) (text string, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf extract: %v", r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}
	defer file.Close()

	pages := reader.NumPage()
	if pages > pdfMaxPages {
		pages = pdfMaxPages
	}
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteByte(' ')
		if sb.Len() > 4*MaxSampleLen {
			break
		}
	}
	return sb.String(), nil
}

// extractXLSX joins cell values from the first sheet, bounded by row, column
// and total cell caps.
func extractXLSX(path string) (string, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("xlsx open: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("xlsx: no sheets")
	}
	rows, err := workbook.Rows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("xlsx rows: %w", err)
	}
	defer rows.Close()

	var sb strings.Builder
	cells := 0
	for rowIdx := 0; rows.Next() && rowIdx < xlsxMaxRows && cells < xlsxMaxCells; rowIdx++ {
		columns, err := rows.Columns()
		if err != nil {
			continue
		}
		for colIdx, value := range columns {
			if colIdx >= xlsxMaxCols || cells >= xlsxMaxCells {
				break
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			sb.WriteString(value)
			sb.WriteByte(' ')
			cells++
		}
	}
	return sb.String(), nil
}

// extractZipXML reads one XML member of a zip container (docx, odt) and
// collects character data from the first paragraphs.
func extractZipXML(path, member string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("zip open: %w", err)
	}
	defer archive.Close()

	var target *zip.File
	for _, file := range archive.File {
		if file.Name == member {
			target = file
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("zip: member %s not found", member)
	}
	reader, err := target.Open()
	if err != nil {
		return "", fmt.Errorf("zip member open: %w", err)
	}
	defer reader.Close()

	decoder := xml.NewDecoder(reader)
	var sb strings.Builder
	paragraphs := 0
	for paragraphs < xmlMaxParas {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("xml decode: %w", err)
		}
		switch tok := token.(type) {
		case xml.CharData:
			sb.Write(tok)
		case xml.EndElement:
			if tok.Name.Local == "p" {
				sb.WriteByte(' ')
				paragraphs++
			}
		}
		if sb.Len() > 4*MaxSampleLen {
			break
		}
	}
	return sb.String(), nil
}

// extractTextPrefix reads a bounded prefix and decodes it permissively so
// legacy single-byte encodings still yield usable text.
func extractTextPrefix(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("text open: %w", err)
	}
	defer file.Close()

	buf := make([]byte, textPrefixLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("text read: %w", err)
	}
	return decodePermissive(buf[:n]), nil
}

// decodePermissive keeps valid UTF-8 as is and reinterprets everything else
// as Windows-1252, which covers the common legacy document encodings.
func decodePermissive(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(decoded)
}
