package model

import (
	"path"
	"strings"
	"time"
)

// Message is one inbound piece of correspondence.
type Message struct {
	ID          string
	Date        time.Time
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment is a named blob carried by a Message.
type Attachment struct {
	Name string
	Data []byte
}

// AttachmentReader converts an attachment into plain text.
type AttachmentReader interface {
	Skipped(name string) bool
	Extract(name string, data []byte) (string, error)
}

// CombinedText renders the message as the single document handed to
// extraction. Attachments that fail to convert contribute their error
// instead of text; archives contribute their members without a header.
func (m *Message) CombinedText(r AttachmentReader) string {
	var att strings.Builder
	for _, a := range m.Attachments {
		if r == nil || r.Skipped(a.Name) {
			continue
		}
		text, err := r.Extract(a.Name, a.Data)
		if err != nil {
			text = "[Extraction Error: " + err.Error() + "]"
		}
		if strings.EqualFold(path.Ext(a.Name), ".zip") {
			if text != "" {
				att.WriteString("\n" + text)
			}
			continue
		}
		att.WriteString("\n[Attachment Content: " + a.Name + "]\n" + text)
	}
	return "Subject: " + m.Subject + "\n\nBody:\n" + m.Body + "\n\nAttachments:\n" + att.String()
}
