package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// maxNesting guards the decoders against pathological payloads.
const maxNesting = 256

// Parse decodes a JSON payload, falling back to YAML, into a Document. Key
// order is preserved for both formats.
func Parse(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, errors.New("content: payload is empty")
	}

	root, jsonErr := parseJSON(data)
	if jsonErr != nil {
		var yamlErr error
		root, yamlErr = parseYAML(data)
		if yamlErr != nil {
			if errors.Is(jsonErr, ErrNotObject) || errors.Is(yamlErr, ErrNotObject) {
				return Document{}, ErrNotObject
			}
			return Document{}, fmt.Errorf("content: parse: invalid JSON (%v) or YAML (%v)", jsonErr, yamlErr)
		}
	}

	obj, ok := root.(*Object)
	if !ok {
		return Document{}, ErrNotObject
	}
	return NewDocument(obj), nil
}

// MustParse panics when data cannot be parsed. Intended for tests and fixtures.
func MustParse(data string) Document {
	doc, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return doc
}

func parseJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := decodeJSON(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("content: trailing data after document")
	}
	if _, ok := node.(*Object); !ok {
		return nil, ErrNotObject
	}
	return node, nil
}

func decodeJSON(dec *json.Decoder, depth int) (Node, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("content: document nested deeper than %d levels", maxNesting)
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("content: expected object key, got %v", keyTok)
				}
				child, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				obj.Set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := Array{}
			for dec.More() {
				child, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				arr = append(arr, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("content: unexpected delimiter %q", v)
		}
	case string:
		return String(v), nil
	case json.Number:
		return Scalar{Raw: v.String()}, nil
	case bool:
		return Scalar{Raw: strconv.FormatBool(v)}, nil
	case nil:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("content: unexpected token %v", tok)
	}
}

func parseYAML(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("content: yaml payload has no document")
	}
	node, err := convertYAML(doc.Content[0], 0)
	if err != nil {
		return nil, err
	}
	if _, ok := node.(*Object); !ok {
		return nil, ErrNotObject
	}
	return node, nil
}

func convertYAML(n *yaml.Node, depth int) (Node, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("content: document nested deeper than %d levels", maxNesting)
	}
	switch n.Kind {
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			child, err := convertYAML(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(n.Content[i].Value, child)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make(Array, 0, len(n.Content))
		for _, item := range n.Content {
			child, err := convertYAML(item, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, child)
		}
		return arr, nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null{}, nil
		}
		return convertYAML(n.Alias, depth+1)
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return Null{}, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return Scalar{Raw: strconv.FormatBool(b)}, nil
		case "!!int", "!!float":
			return Scalar{Raw: n.Value}, nil
		default:
			return String(n.Value), nil
		}
	default:
		return nil, fmt.Errorf("content: unsupported yaml node kind %d", n.Kind)
	}
}
