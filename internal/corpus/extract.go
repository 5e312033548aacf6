package corpus

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// extractor turns the raw bytes of a corpus file into document text.
type extractor func(content []byte) (string, error)

// extractors maps a lowercase extension to its extractor. Anything else is read
// as plain text.
var extractors = map[string]extractor{
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".xlsx": extractXLSX,
}

// ExtractText returns the document text of content, choosing the format by the
// extension of path.
func ExtractText(path string, content []byte) (string, error) {
	if ex, ok := extractors[strings.ToLower(filepath.Ext(path))]; ok {
		text, err := ex(content)
		if err != nil {
			return "", err
		}
		return validUTF8([]byte(text)), nil
	}
	return validUTF8(content), nil
}

func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract PDF page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

// wordText matches the text runs of a WordprocessingML body.
var wordText = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

const (
	docxBody         = "word/document.xml"
	docxContentTypes = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// Override elements of [Content_Types].xml; attribute order varies.
var (
	docxOverride = regexp.MustCompile(`<Override[^>]*>`)
	docxPartName = regexp.MustCompile(`PartName="([^"]+)"`)
)

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// docxMainPart returns the name of the main document part declared in
// [Content_Types].xml, or word/document.xml when none is declared.
func docxMainPart(zr *zip.Reader) string {
	for _, f := range zr.File {
		if f.Name != docxContentTypes {
			continue
		}
		types, err := readZipFile(f)
		if err != nil {
			break
		}
		for _, override := range docxOverride.FindAll(types, -1) {
			if !bytes.Contains(override, []byte(`ContentType="`+docxMainType+`"`)) {
				continue
			}
			if m := docxPartName.FindSubmatch(override); m != nil {
				return strings.TrimPrefix(string(m[1]), "/")
			}
		}
		break
	}
	return docxBody
}

func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}
	part := docxMainPart(zr)
	for _, f := range zr.File {
		if f.Name != part {
			continue
		}
		body, err := readZipFile(f)
		if err != nil {
			return "", fmt.Errorf("read DOCX body %s: %w", part, err)
		}
		runs := wordText.FindAllSubmatch(body, -1)
		words := make([]string, 0, len(runs))
		for _, run := range runs {
			if t := strings.TrimSpace(string(run[1])); t != "" {
				words = append(words, t)
			}
		}
		return strings.Join(words, " "), nil
	}
	return "", fmt.Errorf("open DOCX: %s not found", part)
}

func extractXLSX(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open XLSX: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read XLSX sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String()), nil
}
