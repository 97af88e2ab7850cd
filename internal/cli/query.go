package cli

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlekbai/metaquery/internal/result"
)

// ResultFormats lists the encodings the query command can write.
var ResultFormats = []string{"json", "cda", "xml", "xlsx"}

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	File   string
	Format string
	Limit  int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run an MQL or JSON query document",
		Long: `Run a query document and write its result.

The document is read as MQL XML when the file ends in .xml or starts with
'<', and as a JSON query otherwise. Use --file - to read standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "query document path, or - for stdin")
	cmd.Flags().StringVar(&opts.Format, "format", "json", "result format (json|cda|xml|xlsx)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", -1, "maximum rows, -1 for no limit")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions) error {
	if !slices.Contains(ResultFormats, opts.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ResultFormats)
	}
	doc, err := readQueryFile(cmd.InOrStdin(), opts.File)
	if err != nil {
		return err
	}

	rt, err := openRuntime(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	var (
		rs    *result.ResultSet
		found bool
	)
	if strings.HasSuffix(opts.File, ".xml") || strings.HasPrefix(strings.TrimSpace(doc), "<") {
		rs, found, err = rt.svc.DoXMLQuery(cmd.Context(), doc, opts.Limit)
	} else {
		rs, found, err = rt.svc.DoJSONQuery(cmd.Context(), doc, opts.Limit)
	}
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("query references a model, category or column that does not exist")
	}
	return writeResult(cmd.OutOrStdout(), opts.Format, rs)
}

func readQueryFile(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return "", fmt.Errorf("read query document: %w", err)
	}
	return string(data), nil
}

func writeResult(w io.Writer, format string, rs *result.ResultSet) error {
	var data []byte
	var err error
	switch format {
	case "json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(rs)
		data = buf.Bytes()
	case "cda":
		data, err = result.CDAJSON(rs)
		data = append(data, '\n')
	case "xml":
		data, err = xml.MarshalIndent(rs, "", "  ")
		data = append([]byte(xml.Header), append(data, '\n')...)
	case "xlsx":
		return result.WriteXLSX(w, rs)
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = w.Write(data)
	return err
}
