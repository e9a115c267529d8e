// Package sniff validates raw report bytes before any parsing happens:
// size limits, character encoding, active-content rejection, and the
// is-this-even-an-AWR-report acceptance check. Rejections here are the
// only fatal errors in the pipeline.
package sniff

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

const (
	// DefaultMaxBytes is the largest document accepted for parsing.
	DefaultMaxBytes = 100 << 20
	// prefixBytes bounds how much of the document the classifier reads.
	prefixBytes = 16384
	// controlRatioLimit rejects a decoding when more than this share of
	// the prefix decodes to control or replacement characters.
	controlRatioLimit = 0.10
)

// Config tunes the validator. The zero value means defaults.
type Config struct {
	MaxBytes int64
}

// ReportClass is the coarse document classification from the prefix scan.
type ReportClass string

const (
	ClassAWR        ReportClass = "awr"
	ClassASH        ReportClass = "ash"
	ClassGeneric    ReportClass = "generic_oracle"
	ClassStructural ReportClass = "structural"
)

// RawDocument is a validated, decoded document ready for HTML parsing.
type RawDocument struct {
	Text     string
	Encoding string
	FileHash string
	Class    ReportClass
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// unsafe markers, matched against the whole lowercased document.
// Presence of any one rejects the document outright; nothing here is ever
// sanitized and re-accepted.
var unsafeMarkers = []string{
	"<script",
	"javascript:",
	"onload=",
	"onerror=",
	"eval(",
	"document.cookie",
}

// Sniff validates data and returns the decoded document. Every rejection
// is a *model.ValidationError carrying the failure kind.
func Sniff(data []byte, cfg Config) (*RawDocument, error) {
	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(len(data)) > maxBytes {
		return nil, &model.ValidationError{
			Kind:   model.TooLarge,
			Reason: fmt.Sprintf("document is %d bytes, limit is %d", len(data), maxBytes),
		}
	}
	if len(data) == 0 {
		return nil, &model.ValidationError{Kind: model.NotAWRLike, Reason: "document is empty"}
	}

	text, encoding, err := decode(data)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	for _, marker := range unsafeMarkers {
		if strings.Contains(lower, marker) {
			return nil, &model.ValidationError{
				Kind:   model.UnsafeContent,
				Reason: fmt.Sprintf("active content marker %q present", marker),
			}
		}
	}

	prefix := lower
	if len(prefix) > prefixBytes {
		prefix = prefix[:prefixBytes]
	}
	class, ok := classify(prefix)
	if !ok {
		return nil, &model.ValidationError{
			Kind:   model.NotAWRLike,
			Reason: "no AWR, ASH or Oracle report signals in document prefix",
		}
	}

	sum := sha256.Sum256(data)
	return &RawDocument{
		Text:     text,
		Encoding: encoding,
		FileHash: hex.EncodeToString(sum[:]),
		Class:    class,
	}, nil
}

// decode tries each candidate encoding in priority order. Single-byte
// encodings decode any byte sequence, so candidates are additionally gated
// on how much of the prefix comes out as control garbage.
func decode(data []byte) (string, string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		trimmed := data[len(utf8BOM):]
		if utf8.Valid(trimmed) {
			return string(trimmed), "utf-8-sig", nil
		}
	}
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	candidates := []struct {
		name string
		cm   *charmap.Charmap
	}{
		{"windows-1252", charmap.Windows1252},
		{"latin-1", charmap.ISO8859_1},
	}
	for _, c := range candidates {
		decoded, err := c.cm.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		text := string(decoded)
		if plausibleText(text) {
			return text, c.name, nil
		}
	}
	return "", "", &model.ValidationError{
		Kind:   model.UndecodableEncoding,
		Reason: "document does not decode cleanly under any supported encoding",
	}
}

// plausibleText rejects decodings dominated by control or replacement
// characters in the prefix.
func plausibleText(text string) bool {
	prefix := text
	if len(prefix) > prefixBytes {
		prefix = prefix[:prefixBytes]
	}
	total, bad := 0, 0
	for _, r := range prefix {
		total++
		if r == utf8.RuneError || (r < 0x20 && r != '\t' && r != '\n' && r != '\r') || (r >= 0x7f && r <= 0x9f) {
			bad++
		}
	}
	if total == 0 {
		return false
	}
	return float64(bad)/float64(total) <= controlRatioLimit
}

// classify applies the acceptance signals to the lowercased prefix. Any
// one signal admits the document; specific classes win over generic ones.
func classify(prefix string) (ReportClass, bool) {
	awrSignals := []string{
		"workload repository",
		"awr report",
		"automatic workload repository",
	}
	for _, s := range awrSignals {
		if strings.Contains(prefix, s) {
			return ClassAWR, true
		}
	}

	ashSignals := []string{
		"ash report",
		"active session history",
	}
	for _, s := range ashSignals {
		if strings.Contains(prefix, s) {
			return ClassASH, true
		}
	}

	if strings.Contains(prefix, "oracle") {
		for _, s := range []string{"report", "database", "instance"} {
			if strings.Contains(prefix, s) {
				return ClassGeneric, true
			}
		}
	}

	structuralSignals := []string{
		"db name",
		"db id",
		"instance name",
		"host name",
		"snap id",
		"begin snap",
		"end snap",
		"oracle database",
	}
	for _, s := range structuralSignals {
		if strings.Contains(prefix, s) {
			return ClassStructural, true
		}
	}

	return "", false
}
