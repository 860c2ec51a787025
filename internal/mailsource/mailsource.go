// Package mailsource reads claim correspondence stored as RFC 822 .eml files.
package mailsource

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/model"
	"github.com/gyeh/claimledger/internal/normalize"
)

var wordDecoder = &mime.WordDecoder{}

// Source lists messages from a directory tree.
type Source struct {
	dir   string
	since time.Time
	log   zerolog.Logger
}

// New creates a Source over dir. Messages dated before since are skipped;
// a zero since keeps everything.
func New(dir string, since time.Time, log zerolog.Logger) *Source {
	return &Source{dir: dir, since: since, log: log}
}

// Messages parses every .eml file under the directory, oldest first.
// Unparseable files are logged and skipped.
func (s *Source) Messages(ctx context.Context) ([]model.Message, error) {
	var out []model.Message
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".eml") {
			return nil
		}
		msg, err := ReadFile(p)
		if err != nil {
			s.log.Warn().Err(err).Str("file", p).Msg("skipping unreadable message")
			return nil
		}
		if !s.since.IsZero() && msg.Date.Before(s.since) {
			return nil
		}
		out = append(out, *msg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.dir, err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ReadFile parses a single .eml file, falling back to its mtime when the
// message carries no usable Date header.
func ReadFile(p string) (*model.Message, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	return Parse(raw, info.ModTime())
}

// Parse decodes a raw RFC 822 message.
func Parse(raw []byte, fallbackDate time.Time) (*model.Message, error) {
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	msg := &model.Message{
		ID:      messageID(m.Header, raw),
		Subject: decodeHeader(m.Header.Get("Subject")),
		Date:    fallbackDate.UTC(),
	}
	if d, err := m.Header.Date(); err == nil {
		msg.Date = d.UTC()
	}

	var body strings.Builder
	if err := walkPart(m.Header, m.Body, &body, msg); err != nil {
		return nil, err
	}
	msg.Body = body.String()
	return msg, nil
}

func messageID(h mail.Header, raw []byte) string {
	if id := strings.Trim(strings.TrimSpace(h.Get("Message-ID")), "<>"); id != "" {
		return id
	}
	return normalize.ContentHash(raw)
}

func decodeHeader(v string) string {
	if s, err := wordDecoder.DecodeHeader(v); err == nil {
		return s
	}
	return v
}

// partHeader is the subset of MIME headers the walker needs.
type partHeader interface {
	Get(key string) string
}

func walkPart(h partHeader, r io.Reader, body *strings.Builder, msg *model.Message) error {
	ctype := h.Get("Content-Type")
	if ctype == "" {
		ctype = "text/plain"
	}
	media, params, err := mime.ParseMediaType(ctype)
	if err != nil {
		media = "application/octet-stream"
	}

	if strings.HasPrefix(media, "multipart/") {
		mr := multipart.NewReader(r, params["boundary"])
		for {
			p, err := mr.NextRawPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read multipart: %w", err)
			}
			if err := walkPart(p.Header, p, body, msg); err != nil {
				return err
			}
		}
	}

	data, err := io.ReadAll(decodeTransfer(h.Get("Content-Transfer-Encoding"), r))
	if err != nil {
		return fmt.Errorf("decode part: %w", err)
	}

	disposition, dparams, _ := mime.ParseMediaType(h.Get("Content-Disposition"))
	name := decodeHeader(dparams["filename"])
	if name == "" {
		name = decodeHeader(params["name"])
	}
	if disposition == "attachment" || name != "" {
		if name == "" {
			name = "unknown"
		}
		msg.Attachments = append(msg.Attachments, model.Attachment{Name: name, Data: data})
		return nil
	}
	if media == "text/plain" {
		body.Write(data)
	}
	return nil
}

func decodeTransfer(enc string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
