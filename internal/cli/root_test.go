package cli_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/metaquery/internal/cli"
	"github.com/atlekbai/metaquery/internal/codec"
	"github.com/atlekbai/metaquery/internal/sampledata"
)

// run executes the CLI in an empty directory and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cmd := cli.NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestModelsCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "", "models", "--demo")
	require.NoError(t, err)
	assert.Contains(t, out, "DOMAIN")
	assert.Contains(t, out, "BV_HUMAN_RESOURCES")

	out, err = run(t, "", "models", "--demo", "--json", "--model", "BV_ORDERS")
	require.NoError(t, err)
	var summaries []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Orders", summaries[0]["modelName"])
}

func TestQueryCommandXMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	doc, err := codec.EncodeXML(sampledata.ProductSalesIn("Canada", true), nil)
	require.NoError(t, err)
	path := filepath.Join(dir, "canada.xml")
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	out, err := run(t, "", "query", "--demo", "--file", path, "--format", "cda")
	require.NoError(t, err)

	var body struct {
		QueryInfo struct {
			TotalRows int `json:"totalRows"`
		} `json:"queryInfo"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, 48, body.QueryInfo.TotalRows)
}

func TestQueryCommandStdin(t *testing.T) {
	t.Chdir(t.TempDir())
	doc, err := codec.EncodeJSON(sampledata.ProductSalesIn("Germany", true))
	require.NoError(t, err)

	out, err := run(t, string(doc), "query", "--demo", "--file", "-", "--limit", "3")
	require.NoError(t, err)

	var body struct {
		Rows [][]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Len(t, body.Rows, 3)
}

func TestQueryCommandErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	doc, err := codec.EncodeJSON(sampledata.ProductSales(false))
	require.NoError(t, err)
	bogus := strings.Replace(string(doc), sampledata.DomainID, "bogus", 1)

	_, err = run(t, bogus, "query", "--demo", "--file", "-")
	assert.ErrorContains(t, err, "does not exist")

	_, err = run(t, string(doc), "query", "--demo", "--file", "-", "--format", "pdf")
	assert.ErrorContains(t, err, "invalid format")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "", "migrate")
	assert.ErrorContains(t, err, "metadata.database_url")
}
