package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// DevSender implements Sender for local development. Instead of calling a
// provider it writes each message as an HTML file plus a JSON metadata file
// so rendered output can be inspected in a browser.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender writing into dir. The
// directory is created on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

type devMetadata struct {
	Timestamp string   `json:"timestamp"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Text      string   `json:"text"`
	Tag       string   `json:"tag,omitempty"`
}

func (d *DevSender) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, Transient("dev", fmt.Errorf("cannot create output directory: %w", err))
	}

	now := time.Now()
	base := now.Format("2006_01_02_150405") + "_" + sanitizeFilename(msg.To[0])

	htmlPath := filepath.Join(d.dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(msg.HTML), 0o644); err != nil {
		return nil, Transient("dev", err)
	}

	meta, err := json.MarshalIndent(devMetadata{
		Timestamp: now.Format(time.RFC3339),
		To:        msg.To,
		Subject:   msg.Subject,
		Text:      msg.Text,
		Tag:       msg.Tag,
	}, "", "  ")
	if err != nil {
		return nil, Permanent("dev", err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0o644); err != nil {
		return nil, Transient("dev", err)
	}

	return &Receipt{MessageID: "dev-" + uuid.New().String(), Accepted: msg.To}, nil
}

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "@", "_at_")
	return filenameSanitizer.ReplaceAllString(s, "_")
}
