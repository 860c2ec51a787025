// Package textract turns message attachments into plain text for extraction.
package textract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const defaultCommandTimeout = 60 * time.Second

// maxMemberSize bounds how much of a single zip member is read.
const maxMemberSize = 64 << 20

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// Extractor converts attachment bytes into text by file extension.
type Extractor struct {
	skip      []*regexp.Regexp
	pdfToText string
	tesseract string
	timeout   time.Duration
	log       zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCommands overrides the PDF and OCR executables. An empty string
// disables that conversion.
func WithCommands(pdfToText, tesseract string) Option {
	return func(e *Extractor) {
		e.pdfToText = pdfToText
		e.tesseract = tesseract
	}
}

// WithCommandTimeout bounds each external conversion.
func WithCommandTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// New creates an Extractor. pdftotext and tesseract are looked up on PATH;
// missing tools make their formats yield empty text.
func New(skip []*regexp.Regexp, log zerolog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		skip:    skip,
		timeout: defaultCommandTimeout,
		log:     log,
	}
	if p, err := exec.LookPath("pdftotext"); err == nil {
		e.pdfToText = p
	}
	if p, err := exec.LookPath("tesseract"); err == nil {
		e.tesseract = p
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Skipped reports whether an attachment name matches the skip list.
func (e *Extractor) Skipped(name string) bool {
	for _, re := range e.skip {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Extract returns the text content of data, dispatching on the extension of
// name. Unknown types yield empty text and no error.
func (e *Extractor) Extract(name string, data []byte) (string, error) {
	if e.Skipped(path.Base(name)) {
		return "", nil
	}
	ext := strings.ToLower(path.Ext(name))
	switch {
	case ext == ".txt" || ext == ".csv" || ext == ".eml":
		return string(data), nil
	case ext == ".xlsx" || ext == ".xlsm":
		return spreadsheetText(data)
	case ext == ".docx":
		return documentText(data)
	case ext == ".zip":
		return e.zipText(data)
	case ext == ".pdf":
		return e.run(e.pdfToText, ext, data, func(in string) []string { return []string{"-layout", in, "-"} })
	case imageExts[ext]:
		return e.run(e.tesseract, ext, data, func(in string) []string { return []string{in, "stdout"} })
	default:
		return "", nil
	}
}

func spreadsheetText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) == 0 {
				continue
			}
			sb.WriteString(strings.Join(cells, " "))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// documentText reads the paragraphs of a .docx body.
func documentText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document body: %w", err)
		}
		defer rc.Close()
		return paragraphs(rc)
	}
	return "", nil
}

func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb, para strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(para.String()); s != "" {
					sb.WriteString(s)
					sb.WriteByte('\n')
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return sb.String(), nil
}

func (e *Extractor) zipText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var parts []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || skipMember(f.Name) {
			continue
		}
		base := path.Base(f.Name)
		member, err := readMember(f)
		if err != nil {
			e.log.Warn().Err(err).Str("member", f.Name).Msg("skipping unreadable zip member")
			continue
		}
		text, err := e.Extract(base, member)
		if err != nil {
			e.log.Warn().Err(err).Str("member", f.Name).Msg("zip member extraction failed")
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[Zip Content: %s]\n%s", base, text))
	}
	return strings.Join(parts, "\n"), nil
}

func skipMember(name string) bool {
	base := path.Base(name)
	return strings.HasPrefix(base, ".") ||
		strings.Contains(name, "__MACOSX") ||
		strings.EqualFold(path.Ext(base), ".zip")
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxMemberSize))
}

// run writes data to a temp file and returns the stdout of the command.
func (e *Extractor) run(bin, ext string, data []byte, args func(in string) []string) (string, error) {
	if bin == "" {
		return "", nil
	}
	tmp, err := os.CreateTemp("", "claimledger-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args(tmp.Name())...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", path.Base(bin), err, strings.TrimSpace(stderr.String()))
	}
	e.log.Debug().Str("command", path.Base(bin)).Dur("duration", time.Since(start)).Msg("converted attachment")
	return stdout.String(), nil
}
