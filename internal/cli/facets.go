package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/raphaelgruber/jobwatch/internal/facetview"
	"github.com/spf13/cobra"
)

var (
	facetsConfig string
	facetsRender string
)

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Show the search results widget configuration",
	Long: `Print the effective configuration of the faceted-search results widget
as YAML. With --render, format search result records from a file the way the
widget lists them.

The records file holds either a JSON array of records or a search response
with hits.hits[]._source entries.

Examples:
  jobwatch facets
  jobwatch facets --config facetview.yaml
  jobwatch facets --render results.json`,
	Args: cobra.NoArgs,
	RunE: runFacets,
}

func init() {
	facetsCmd.Flags().StringVarP(&facetsConfig, "config", "c", "", "widget config file (default $JOBWATCH_FACETVIEW_CONFIG)")
	facetsCmd.Flags().StringVar(&facetsRender, "render", "", "format the records in this JSON file")
}

func runFacets(cmd *cobra.Command, args []string) error {
	path := cfg.FacetViewConfig
	if facetsConfig != "" {
		path = facetsConfig
	}

	fv, err := facetview.Load(path, cfg.QueryEndpoint)
	if err != nil {
		return err
	}

	if facetsRender == "" {
		out, err := fv.Marshal()
		if err != nil {
			return fmt.Errorf("encode facetview config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	data, err := os.ReadFile(facetsRender)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	records, err := parseRecords(data)
	if err != nil {
		return err
	}

	for _, line := range facetview.RenderResults(fv, nil, records) {
		fmt.Println(line)
	}
	return nil
}

// searchResponse is the subset of a search response the widget reads.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source facetview.Record `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// parseRecords accepts a JSON array of records or a search response.
func parseRecords(data []byte) ([]facetview.Record, error) {
	var records []facetview.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	records = make([]facetview.Record, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		records = append(records, hit.Source)
	}
	return records, nil
}
