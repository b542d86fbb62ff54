package samsung2878

import (
	"encoding/xml"
	"io"
	"sort"
	"strings"
)

// RawAttributes maps protocol attribute identifiers to raw string values.
// It is the unit of exchange between the wire codec and everything above
// it: one decoded line produces one mapping, keys unique, order
// irrelevant.
type RawAttributes map[string]string

// Clone returns an independent copy of the mapping.
func (a RawAttributes) Clone() RawAttributes {
	if a == nil {
		return nil
	}
	out := make(RawAttributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// DecodeAttributes parses a wire line as an XML fragment and collects
// every <Attr ID="..." Value="..."/> pair into a mapping.
//
// A malformed line yields an empty mapping, never an error. The device
// is not guaranteed to emit strictly valid XML.
func DecodeAttributes(line string) RawAttributes {
	attrs := make(RawAttributes)
	dec := xml.NewDecoder(strings.NewReader(line))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return make(RawAttributes)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Attr" {
			continue
		}

		var id, value string
		var hasID, hasValue bool
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "ID":
				id, hasID = a.Value, true
			case "Value":
				value, hasValue = a.Value, true
			}
		}
		if hasID && hasValue {
			attrs[id] = value
		}
	}

	return attrs
}

// EncodeAttributes renders a mapping into the wire's
// <Attr ID="k" Value="v" /> fragment form. Keys are emitted in sorted
// order so one encode call always produces the same string for the same
// mapping.
func EncodeAttributes(attrs RawAttributes) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(`<Attr ID="`)
		writeEscaped(&b, k)
		b.WriteString(`" Value="`)
		writeEscaped(&b, attrs[k])
		b.WriteString(`" />`)
	}
	return b.String()
}

// writeEscaped writes s with XML special characters escaped.
func writeEscaped(b *strings.Builder, s string) {
	// xml.EscapeText never fails when writing to a strings.Builder.
	_ = xml.EscapeText(b, []byte(s))
}

// escapeAttr returns s escaped for embedding in an attribute value.
func escapeAttr(s string) string {
	var b strings.Builder
	writeEscaped(&b, s)
	return b.String()
}

// messageKind classifies a wire line by its root element.
type messageKind int

const (
	kindUnknown messageKind = iota
	kindResponse
	kindUpdate
)

// wireMessage is the parsed envelope of one wire line: the root element
// kind plus its Type and Status attributes, if any.
type wireMessage struct {
	kind   messageKind
	typ    string
	status string
}

// parseMessage inspects the root element of a wire line. Lines that are
// not parseable XML classify as kindUnknown; the demultiplexer logs and
// skips those.
func parseMessage(line string) wireMessage {
	dec := xml.NewDecoder(strings.NewReader(line))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err != nil {
			return wireMessage{kind: kindUnknown}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		msg := wireMessage{kind: kindUnknown}
		switch start.Name.Local {
		case "Response":
			msg.kind = kindResponse
		case "Update":
			msg.kind = kindUpdate
		}
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "Type":
				msg.typ = a.Value
			case "Status":
				msg.status = a.Value
			}
		}
		return msg
	}
}
