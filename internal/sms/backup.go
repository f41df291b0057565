// Package sms turns an SMS backup export into transaction records.
package sms

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Message is one <sms> element of a backup file.
type Message struct {
	Address string `xml:"address,attr"`
	Date    string `xml:"date,attr"`
	Body    string `xml:"body,attr"`
}

type backup struct {
	XMLName  xml.Name  `xml:"smses"`
	Messages []Message `xml:"sms"`
}

// ReadBackup decodes an "SMS Backup & Restore" style XML document.
// Messages with a blank body are dropped and bodies are trimmed.
func ReadBackup(r io.Reader) ([]Message, error) {
	var b backup
	if err := xml.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode sms backup: %w", err)
	}
	out := make([]Message, 0, len(b.Messages))
	for _, m := range b.Messages {
		m.Body = strings.TrimSpace(m.Body)
		if m.Body == "" {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
