package format

import (
	"testing"

	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromExtension(t *testing.T) {
	cases := map[string]Format{
		".json": JSON, "yaml": YAML, ".yml": YAML, ".xml": XML, ".toml": TOML,
		".csv": CSV, ".tsv": TSV, ".md": Markdown, ".html": HTML, ".htm": HTML,
		".txt": Text, ".sql": SQL, ".jsonl": JSONL, ".ndjson": JSONL,
		".log": Log, ".env": Env, ".bin": Binary, ".unknown": Binary,
	}
	for ext, want := range cases {
		assert.Equal(t, want, FromExtension(ext), ext)
	}
}

func TestFromContentType(t *testing.T) {
	assert.Equal(t, JSON, FromContentType("application/json; charset=utf-8"))
	assert.Equal(t, JSON, FromContentType("application/vnd.api+json"))
	assert.Equal(t, XML, FromContentType("text/xml"))
	assert.Equal(t, CSV, FromContentType("text/csv"))
	assert.Equal(t, YAML, FromContentType("application/x-yaml"))
	assert.Equal(t, TOML, FromContentType("application/toml"))
	assert.Equal(t, Text, FromContentType("application/octet-stream"))
}

func TestJSONSerializeDeserializeRoundTrip(t *testing.T) {
	v := value.Map(map[string]value.Value{"a": value.Int(1), "b": value.String("x")})
	data, err := Serialize(v, JSON)
	require.NoError(t, err)

	got, err := Deserialize(data, JSON)
	require.NoError(t, err)
	assert.True(t, value.Equal(v, got))
}

func TestYAMLRoundTrip(t *testing.T) {
	v := value.Map(map[string]value.Value{"name": value.String("widget"), "count": value.Int(4)})
	data, err := Serialize(v, YAML)
	require.NoError(t, err)

	got, err := Deserialize(data, YAML)
	require.NoError(t, err)
	assert.Equal(t, "widget", got.Map["name"].Str)
	assert.Equal(t, int64(4), got.Map["count"].Int)
}

func TestTOMLRoundTrip(t *testing.T) {
	v := value.Map(map[string]value.Value{"name": value.String("widget"), "count": value.Int(4)})
	data, err := Serialize(v, TOML)
	require.NoError(t, err)

	got, err := Deserialize(data, TOML)
	require.NoError(t, err)
	assert.Equal(t, "widget", got.Map["name"].Str)
	assert.Equal(t, int64(4), got.Map["count"].Int)
}

func TestEnvSerialization(t *testing.T) {
	v := value.Map(map[string]value.Value{
		"db": value.Map(map[string]value.Value{"host": value.String("localhost")}),
		"port": value.Int(8080),
	})
	data, err := Serialize(v, Env)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "DB_HOST=localhost")
	assert.Contains(t, s, "PORT=8080")
}

func TestXMLRoundTrip(t *testing.T) {
	v := value.Map(map[string]value.Value{"name": value.String("widget")})
	data, err := Serialize(v, XML)
	require.NoError(t, err)

	got, err := Deserialize(data, XML)
	require.NoError(t, err)
	assert.Equal(t, "widget", got.Map["name"].Str)
}

func TestLogFormatIsWriteOnly(t *testing.T) {
	_, err := Deserialize([]byte("line"), Log)
	assert.Error(t, err)

	data, err := Serialize(value.String("line"), Log)
	require.NoError(t, err)
	assert.Equal(t, "line", string(data))
}
