package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCSVHeaderNormalization exercises spec §8 scenario S5.
func TestCSVHeaderNormalization(t *testing.T) {
	content := "First Name,Last.Name,Email Address\nAlice,Smith,a@example.com\n"
	s, err := FromCSV(content, DefaultCSVConfig())
	require.NoError(t, err)

	rows, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0].Map
	assert.Equal(t, "Alice", row["first-name"].Str)
	assert.Equal(t, "Smith", row["last-name"].Str)
	assert.Equal(t, "a@example.com", row["email-address"].Str)
}

func TestCSVEmbeddedQuotedComma(t *testing.T) {
	content := "name,note\n\"Doe, Jane\",\"said \"\"hi\"\"\"\n"
	s, err := FromCSV(content, DefaultCSVConfig())
	require.NoError(t, err)

	rows, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Doe, Jane", rows[0].Map["name"].Str)
	assert.Equal(t, `said "hi"`, rows[0].Map["note"].Str)
}

func TestCSVTypedAutoCoercion(t *testing.T) {
	content := "active,count,score\ntrue,3,1.5\n"
	s, err := FromCSV(content, DefaultCSVConfig())
	require.NoError(t, err)

	rows, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, true, rows[0].Map["active"].Bool)
	assert.Equal(t, int64(3), rows[0].Map["count"].Int)
	assert.Equal(t, 1.5, rows[0].Map["score"].Double)
}

func TestCSVRoundTrip(t *testing.T) {
	content := "a,b\n1,x\n2,y\n"
	cfg := DefaultCSVConfig()
	s, err := FromCSV(content, cfg)
	require.NoError(t, err)

	rows, err := s.Collect(context.Background())
	require.NoError(t, err)

	out := SerializeCSV(rows, cfg)
	s2, err := FromCSV(out, cfg)
	require.NoError(t, err)
	rows2, err := s2.Collect(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(rows), len(rows2))
	for i := range rows {
		assert.Equal(t, rows[i].Map["a"].String(), rows2[i].Map["a"].String())
		assert.Equal(t, rows[i].Map["b"].String(), rows2[i].Map["b"].String())
	}
}

func TestCSVCustomQuoteAndDelimiter(t *testing.T) {
	content := "name;note\n'it''s fine';plain\n"
	cfg := CSVConfig{Delimiter: ';', Quote: '\'', Header: true}
	s, err := FromCSV(content, cfg)
	require.NoError(t, err)
	rows, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "it's fine", rows[0].Map["name"].Str)
}
