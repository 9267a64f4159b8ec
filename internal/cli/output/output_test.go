package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable(t *testing.T) {
	data := NewTableData("ID", "NAME")
	data.AddRow("1", "Ann")
	data.AddRow("22", "Bob")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, data))

	var lines []string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "ID"))
	assert.Contains(t, lines[0], "NAME")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[1]), "1"))
	assert.Contains(t, lines[2], "Bob")
	assert.NotContains(t, buf.String(), "|")
}

func TestPrint(t *testing.T) {
	data := NewTableData("KEY")

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, nil, true, "Nothing here.", data))
	assert.Equal(t, "Nothing here.\n", buf.String())

	buf.Reset()
	require.NoError(t, Print(&buf, FormatJSON, map[string]int{"total": 3}, false, "", data))
	assert.JSONEq(t, `{"total":3}`, buf.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "héllo w...", Truncate("héllo world!", 10))
}
