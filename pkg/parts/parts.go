// SPDX-License-Identifier: Apache-2.0

// Package parts implements the multi-modal message content units of the A2A
// protocol: text, files and structured data, plus artifacts composed of them.
//
// FilePart and DataPart accept two JSON shapes on decode: the canonical A2A
// wire form ({"type":"file","file":{...}}) and a simplified form used by
// hand-written callers ({name, data, mime_type}). Encoding always produces
// the canonical form.
package parts

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultFileMimeType is used when a file part does not declare a mime type.
const DefaultFileMimeType = "application/octet-stream"

// Part is one unit of multi-modal message content.
type Part interface {
	// Wire returns the canonical A2A representation of the part.
	Wire() map[string]any
}

// TextPart is plain text content.
type TextPart struct {
	Text string
}

// Wire implements Part.
func (p TextPart) Wire() map[string]any {
	return map[string]any{"type": "text", "text": p.Text}
}

// MarshalJSON encodes the canonical wire shape.
func (p TextPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Wire())
}

// UnmarshalJSON accepts the canonical wire shape.
func (p *TextPart) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Text = raw.Text
	return nil
}

// FilePart is file content carried either as in-memory bytes or a remote URI.
// Exactly one of Data and URI is expected to be set.
type FilePart struct {
	Name     string
	MimeType string
	Data     []byte
	URI      string
}

// IsURI reports whether the file content lives behind a URI.
func (p FilePart) IsURI() bool { return p.URI != "" }

// IsBytes reports whether the file content is held in memory.
func (p FilePart) IsBytes() bool { return len(p.Data) > 0 }

// Wire implements Part. Bytes are base64 encoded per the A2A file shape.
func (p FilePart) Wire() map[string]any {
	name := p.Name
	if name == "" {
		name = "unknown"
	}
	mime := p.MimeType
	if mime == "" {
		mime = DefaultFileMimeType
	}
	file := map[string]any{"name": name, "mimeType": mime}
	if p.URI != "" {
		file["uri"] = p.URI
	} else {
		file["bytes"] = base64.StdEncoding.EncodeToString(p.Data)
	}
	return map[string]any{"type": "file", "file": file}
}

// MarshalJSON encodes the canonical wire shape.
func (p FilePart) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Wire())
}

// UnmarshalJSON accepts both the canonical shape and the simplified
// {name, data, mime_type, uri} shape, where a string data field is treated
// as UTF-8 text.
func (p *FilePart) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fp, err := FileFromWire(raw)
	if err != nil {
		return err
	}
	*p = fp
	return nil
}

// FileFromWire builds a FilePart from a decoded JSON mapping in either
// accepted shape.
func FileFromWire(raw map[string]any) (FilePart, error) {
	if nested, ok := raw["file"].(map[string]any); ok {
		fp := FilePart{
			Name:     stringField(nested, "name", "unknown"),
			MimeType: stringField(nested, "mimeType", DefaultFileMimeType),
			URI:      stringField(nested, "uri", ""),
		}
		if enc, ok := nested["bytes"].(string); ok && enc != "" {
			decoded, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				return FilePart{}, fmt.Errorf("decode file bytes: %w", err)
			}
			fp.Data = decoded
		}
		return fp, nil
	}

	fp := FilePart{
		Name:     stringField(raw, "name", "unknown"),
		MimeType: stringField(raw, "mime_type", DefaultFileMimeType),
		URI:      stringField(raw, "uri", ""),
	}
	switch v := raw["data"].(type) {
	case string:
		fp.Data = []byte(v)
	case []byte:
		fp.Data = v
	case nil:
	default:
		return FilePart{}, fmt.Errorf("file data must be a string, got %T", v)
	}
	return fp, nil
}

// DataPart is arbitrary structured JSON data.
type DataPart struct {
	Data     map[string]any
	MimeType string
}

// Wire implements Part.
func (p DataPart) Wire() map[string]any {
	return map[string]any{"type": "data", "data": p.Data}
}

// MarshalJSON encodes the canonical wire shape.
func (p DataPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Wire())
}

// UnmarshalJSON accepts the canonical {"type":"data","data":{...}} shape or
// treats any bare mapping as the payload directly.
func (p *DataPart) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = DataFromWire(raw)
	return nil
}

// DataFromWire builds a DataPart from a decoded JSON mapping in either
// accepted shape.
func DataFromWire(raw map[string]any) DataPart {
	if raw["type"] == "data" {
		if payload, ok := raw["data"].(map[string]any); ok {
			return DataPart{Data: payload, MimeType: "application/json"}
		}
		return DataPart{Data: map[string]any{}, MimeType: "application/json"}
	}
	return DataPart{Data: raw, MimeType: "application/json"}
}

// Parse converts a decoded A2A part mapping into the matching Part type.
// Unrecognized shapes degrade to a TextPart of the raw value.
func Parse(raw map[string]any) Part {
	kind, _ := raw["type"].(string)
	if kind == "" {
		kind, _ = raw["kind"].(string)
	}
	switch kind {
	case "text":
		return TextPart{Text: stringField(raw, "text", "")}
	case "file":
		fp, err := FileFromWire(raw)
		if err != nil {
			return TextPart{Text: fmt.Sprint(raw)}
		}
		return fp
	case "data":
		return DataFromWire(raw)
	default:
		return TextPart{Text: fmt.Sprint(raw)}
	}
}

// Artifact is a named collection of parts produced by a skill.
type Artifact struct {
	Name        string
	Description string
	Parts       []Part
	Metadata    map[string]any
}

// AddText appends a text part. Returns the artifact for chaining.
func (a *Artifact) AddText(text string) *Artifact {
	a.Parts = append(a.Parts, TextPart{Text: text})
	return a
}

// AddFile appends a file part. Returns the artifact for chaining.
func (a *Artifact) AddFile(file FilePart) *Artifact {
	a.Parts = append(a.Parts, file)
	return a
}

// AddData appends a data part. Returns the artifact for chaining.
func (a *Artifact) AddData(data map[string]any) *Artifact {
	a.Parts = append(a.Parts, DataPart{Data: data, MimeType: "application/json"})
	return a
}

// Wire returns the canonical artifact representation.
func (a *Artifact) Wire() map[string]any {
	wireParts := make([]map[string]any, 0, len(a.Parts))
	for _, p := range a.Parts {
		wireParts = append(wireParts, p.Wire())
	}
	return map[string]any{
		"name":        a.Name,
		"description": a.Description,
		"parts":       wireParts,
		"metadata":    a.Metadata,
	}
}

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
