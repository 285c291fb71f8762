package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the document preserving object key order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if d.root == nil {
		return []byte("{}"), nil
	}
	if err := encodeNode(&buf, d.root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the document.
func (d *Document) UnmarshalJSON(data []byte) error {
	root, err := parseJSON(data)
	if err != nil {
		return err
	}
	d.root = root.(*Object)
	return nil
}

// MarshalIndent encodes the document with indentation.
func (d Document) MarshalIndent(prefix, indent string) ([]byte, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, prefix, indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// EncodeNode writes node as JSON.
func EncodeNode(node Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeNode(&buf, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(buf *bytes.Buffer, node Node) error {
	switch typed := node.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		return encodeString(buf, string(typed))
	case Scalar:
		buf.WriteString(typed.Raw)
	case Array:
		buf.WriteByte('[')
		for i, item := range typed {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Object:
		buf.WriteByte('{')
		for i, key := range typed.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeNode(buf, typed.values[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("content: cannot encode %T", node)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
