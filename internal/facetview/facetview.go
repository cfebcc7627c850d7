// Package facetview holds the configuration handed to the faceted-search
// results widget and the formatter it calls for each result record.
package facetview

import (
	"errors"
	"fmt"
	"html"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPageSize is the number of results per page.
const DefaultPageSize = 25

// Field is a labelled record field.
type Field struct {
	Display string `yaml:"display" json:"display"`
	Field   string `yaml:"field" json:"field"`
}

// Config is the widget configuration.
type Config struct {
	Debug           bool    `yaml:"debug" json:"debug"`
	SearchURL       string  `yaml:"search_url" json:"search_url"`
	PageSize        int     `yaml:"page_size" json:"page_size"`
	Facets          []Field `yaml:"facets" json:"facets"`
	SortBy          []Field `yaml:"search_sortby" json:"search_sortby"`
	SearchboxFields []Field `yaml:"searchbox_fieldselect" json:"searchbox_fieldselect"`
	ResultWrapStart string  `yaml:"resultwrap_start" json:"resultwrap_start"`
	ResultWrapEnd   string  `yaml:"resultwrap_end" json:"resultwrap_end"`
}

// Default returns the stock configuration searching queryEndpoint.
func Default(queryEndpoint string) Config {
	return Config{
		SearchURL: queryEndpoint,
		PageSize:  DefaultPageSize,
		Facets: []Field{
			{Display: "Last Updated", Field: "last_updated"},
		},
		SortBy: []Field{
			{Display: "Last Modified", Field: "last_updated"},
			{Display: "Date Created", Field: "created_date"},
		},
		SearchboxFields: []Field{
			{Display: "ID", Field: "id"},
		},
		ResultWrapStart: "<tr><td>",
		ResultWrapEnd:   "</td></tr>",
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values; an empty path returns the defaults.
func Load(path, queryEndpoint string) (Config, error) {
	cfg := Default(queryEndpoint)
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read facetview config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse facetview config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration without mutating it.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SearchURL) == "" {
		return errors.New("facetview: search_url required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("facetview: page_size must be > 0, got %d", c.PageSize)
	}
	for name, fields := range map[string][]Field{
		"facets":                c.Facets,
		"search_sortby":         c.SortBy,
		"searchbox_fieldselect": c.SearchboxFields,
	} {
		for i, f := range fields {
			if f.Field == "" {
				return fmt.Errorf("facetview: %s[%d] has no field", name, i)
			}
		}
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Record is one search result as returned by the search endpoint.
type Record map[string]any

// RecordFormatter turns a result record into a markup fragment.
type RecordFormatter interface {
	FormatRecord(cfg Config, rec Record) string
}

// FormatterFunc adapts a function to RecordFormatter.
type FormatterFunc func(cfg Config, rec Record) string

func (f FormatterFunc) FormatRecord(cfg Config, rec Record) string { return f(cfg, rec) }

// RecordView is the default formatter: the record id in bold, inside the
// configured result wrapper.
type RecordView struct{}

func (RecordView) FormatRecord(cfg Config, rec Record) string {
	var b strings.Builder
	b.WriteString(cfg.ResultWrapStart)
	b.WriteString(`<div class="row-fluid" style="margin-top: 10px; margin-bottom: 10px">`)
	b.WriteString(`<div class="span12">`)
	b.WriteString(`<strong style="font-size: 150%">`)
	b.WriteString(html.EscapeString(fieldString(rec, "id")))
	b.WriteString(`</strong><br>`)
	b.WriteString(`</div></div>`)
	b.WriteString(cfg.ResultWrapEnd)
	return b.String()
}

// RenderResults formats every record. A nil formatter uses RecordView.
func RenderResults(cfg Config, f RecordFormatter, records []Record) []string {
	if f == nil {
		f = RecordView{}
	}
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, f.FormatRecord(cfg, rec))
	}
	return out
}

func fieldString(rec Record, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
