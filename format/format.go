// Package format implements the Table T-1 serializers and the extension-
// and Content-Type-to-format mapping tables of spec.md §6, used by the
// file and url system objects and by Read/Write actions.
package format

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/stream"
	"github.com/arolang/aro/value"
	"gopkg.in/yaml.v3"
)

// Format identifies a wire/file representation from Table T-1.
type Format string

const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	XML      Format = "xml"
	CSV      Format = "csv"
	TSV      Format = "tsv"
	TOML     Format = "toml"
	Env      Format = "env"
	Markdown Format = "markdown"
	HTML     Format = "html"
	Text     Format = "text"
	SQL      Format = "sql"
	Binary   Format = "binary"
	Log      Format = "log" // write-only
	JSONL    Format = "jsonl"
)

// FromExtension maps a file extension (with or without leading dot,
// case-insensitive) to a Format per spec §6.
func FromExtension(ext string) Format {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "json":
		return JSON
	case "yaml", "yml":
		return YAML
	case "xml":
		return XML
	case "toml":
		return TOML
	case "csv":
		return CSV
	case "tsv":
		return TSV
	case "md":
		return Markdown
	case "html", "htm":
		return HTML
	case "txt":
		return Text
	case "sql":
		return SQL
	case "jsonl", "ndjson":
		return JSONL
	case "log":
		return Log
	case "env":
		return Env
	case "bin", "obj":
		return Binary
	default:
		return Binary
	}
}

// FromPath derives a Format from a file path's extension.
func FromPath(path string) Format {
	return FromExtension(filepath.Ext(path))
}

// FromContentType maps an HTTP Content-Type (ignoring parameters) to a
// Format per spec §6's URL I/O table. Unknown types fall back to Text.
func FromContentType(contentType string) Format {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	switch {
	case ct == "application/json", strings.HasSuffix(ct, "+json"):
		return JSON
	case ct == "application/xml", ct == "text/xml":
		return XML
	case ct == "text/csv", ct == "application/csv":
		return CSV
	case ct == "text/tab-separated-values":
		return TSV
	case ct == "text/yaml", ct == "application/x-yaml", ct == "application/yaml":
		return YAML
	case ct == "application/toml", ct == "text/toml":
		return TOML
	case ct == "application/x-ndjson", ct == "application/jsonl":
		return JSONL
	case ct == "text/markdown":
		return Markdown
	case ct == "text/html":
		return HTML
	case ct == "text/plain":
		return Text
	default:
		return Text
	}
}

// Serialize renders v in format f as bytes.
func Serialize(v value.Value, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return stream.SerializeJSON(v)
	case YAML:
		return yaml.Marshal(valueToPlain(v))
	case XML:
		return serializeXML(v)
	case TOML:
		return serializeTOML(v)
	case CSV:
		return []byte(stream.SerializeCSV(rowsOf(v), stream.DefaultCSVConfig())), nil
	case TSV:
		cfg := stream.DefaultCSVConfig()
		cfg.Delimiter = '\t'
		return []byte(stream.SerializeCSV(rowsOf(v), cfg)), nil
	case Env:
		return serializeEnv(v), nil
	case Markdown, HTML, Text, SQL, Log:
		return []byte(v.String()), nil
	case Binary:
		if v.Kind == value.KindBytes {
			return v.Bytes, nil
		}
		return []byte(v.String()), nil
	case JSONL:
		return serializeJSONL(v)
	default:
		return nil, aroerr.New(aroerr.KindFileSystemError, "unsupported format %q", f)
	}
}

// Deserialize parses data in format f into a Value.
func Deserialize(data []byte, f Format) (value.Value, error) {
	switch f {
	case JSON:
		return stream.DeserializeJSON(data)
	case YAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return value.Null, err
		}
		return plainToValue(raw), nil
	case XML:
		return deserializeXML(data)
	case TOML:
		return deserializeTOML(data)
	case CSV:
		s, err := stream.FromCSV(string(data), stream.DefaultCSVConfig())
		if err != nil {
			return value.Null, err
		}
		rows, err := s.Collect(context.Background())
		if err != nil {
			return value.Null, err
		}
		return value.List(rows), nil
	case TSV:
		cfg := stream.DefaultCSVConfig()
		cfg.Delimiter = '\t'
		s, err := stream.FromCSV(string(data), cfg)
		if err != nil {
			return value.Null, err
		}
		rows, err := s.Collect(context.Background())
		if err != nil {
			return value.Null, err
		}
		return value.List(rows), nil
	case Markdown, HTML, Text, SQL:
		return value.String(string(data)), nil
	case Binary:
		return value.Bytes(data), nil
	case JSONL:
		s, err := stream.FromJSONL(context.Background(), string(data), stream.JSONLConfig{})
		if err != nil {
			return value.Null, err
		}
		rows, err := s.Collect(context.Background())
		if err != nil {
			return value.Null, err
		}
		return value.List(rows), nil
	default:
		return value.Null, aroerr.New(aroerr.KindFileSystemError, "unsupported format %q", f)
	}
}

func rowsOf(v value.Value) []value.Value {
	if v.Kind == value.KindList {
		return v.List
	}
	return []value.Value{v}
}

func serializeEnv(v value.Value) []byte {
	var b bytes.Buffer
	flattenEnv(&b, "", v)
	return b.Bytes()
}

func flattenEnv(b *bytes.Buffer, prefix string, v value.Value) {
	m, ok := asMapLike(v)
	if !ok {
		fmt.Fprintf(b, "%s=%s\n", prefix, v.String())
		return
	}
	for _, k := range value.SortedKeys(m) {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}
		child := m[k]
		if _, isMap := asMapLike(child); isMap {
			flattenEnv(b, key, child)
		} else {
			fmt.Fprintf(b, "%s=%s\n", key, child.String())
		}
	}
}

func asMapLike(v value.Value) (map[string]value.Value, bool) {
	switch v.Kind {
	case value.KindMap:
		return v.Map, true
	case value.KindEntity:
		return v.Entity.Fields, true
	default:
		return nil, false
	}
}

func valueToPlain(v value.Value) any {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool
	case value.KindInt:
		return v.Int
	case value.KindDouble:
		return v.Double
	case value.KindString:
		return v.Str
	case value.KindBytes:
		return v.Bytes
	case value.KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = valueToPlain(e)
		}
		return out
	case value.KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = valueToPlain(e)
		}
		return out
	case value.KindEntity:
		out := make(map[string]any, len(v.Entity.Fields))
		for k, e := range v.Entity.Fields {
			out[k] = valueToPlain(e)
		}
		return out
	default:
		return v.String()
	}
}

func plainToValue(raw any) value.Value {
	switch t := raw.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(t)
	case int:
		return value.Int(int64(t))
	case int64:
		return value.Int(t)
	case float64:
		if t == float64(int64(t)) {
			return value.Int(int64(t))
		}
		return value.Double(t)
	case string:
		return value.String(t)
	case []any:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = plainToValue(e)
		}
		return value.List(out)
	case map[string]any:
		out := make(map[string]value.Value, len(t))
		for k, e := range t {
			out[k] = plainToValue(e)
		}
		return value.Map(out)
	case map[any]any:
		out := make(map[string]value.Value, len(t))
		for k, e := range t {
			out[fmt.Sprintf("%v", k)] = plainToValue(e)
		}
		return value.Map(out)
	default:
		return value.String(fmt.Sprintf("%v", t))
	}
}

func serializeTOML(v value.Value) ([]byte, error) {
	var b bytes.Buffer
	m, ok := asMapLike(v)
	if !ok {
		return nil, aroerr.New(aroerr.KindFileSystemError, "TOML serialization requires a map or entity value")
	}
	enc := toml.NewEncoder(&b)
	if err := enc.Encode(valueToPlain(value.Map(m))); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func deserializeTOML(data []byte) (value.Value, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return value.Null, err
	}
	return plainToValue(raw), nil
}

// xmlNode is a minimal generic XML tree used for lossy Value<->XML
// round-tripping: every Map becomes an element with one child element per
// key, every scalar becomes character data.
type xmlNode struct {
	XMLName xml.Name
	Attr    []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func serializeXML(v value.Value) ([]byte, error) {
	root := valueToXMLNode("root", v)
	return xml.MarshalIndent(root, "", "  ")
}

func valueToXMLNode(name string, v value.Value) xmlNode {
	m, ok := asMapLike(v)
	if !ok {
		return xmlNode{XMLName: xml.Name{Local: name}, Content: v.String()}
	}
	node := xmlNode{XMLName: xml.Name{Local: name}}
	for _, k := range value.SortedKeys(m) {
		node.Nodes = append(node.Nodes, valueToXMLNode(k, m[k]))
	}
	return node
}

func deserializeXML(data []byte) (value.Value, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return value.Null, err
	}
	return xmlNodeToValue(root), nil
}

func xmlNodeToValue(n xmlNode) value.Value {
	if len(n.Nodes) == 0 {
		return value.String(strings.TrimSpace(n.Content))
	}
	m := make(map[string]value.Value, len(n.Nodes))
	for _, child := range n.Nodes {
		m[child.XMLName.Local] = xmlNodeToValue(child)
	}
	return value.Map(m)
}

func serializeJSONL(v value.Value) ([]byte, error) {
	rows := rowsOf(v)
	var b bytes.Buffer
	for _, row := range rows {
		data, err := stream.SerializeJSON(row)
		if err != nil {
			return nil, err
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

// ParseEnvInt is a small helper for env-var-driven numeric config (grace
// periods, ring buffer capacity overrides); nothing in this module calls it.
func ParseEnvInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}
