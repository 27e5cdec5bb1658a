package kb

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mweint/ragger/helper"
)

// Metric is a single named figure from the report.
type Metric struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
	Unit   string `json:"unit"`
	Year   string `json:"year"`
}

// Table is a statistics table from the report.
type Table struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Section is a prose section from the report.
type Section struct {
	Heading    string   `json:"heading"`
	Paragraphs []string `json:"paragraphs"`
}

// Report is the structured scrape of a waste statistics report, the input
// for knowledge base generation.
type Report struct {
	URL             string                       `json:"url"`
	ScrapedAt       string                       `json:"scraped_at"`
	Title           string                       `json:"title"`
	Author          string                       `json:"author"`
	PublicationDate string                       `json:"date"`
	Language        string                       `json:"language"`
	Highlights      []Metric                     `json:"key_highlights"`
	RecyclingRates  []Metric                     `json:"recycling_rates"`
	WasteTrends     []Metric                     `json:"waste_trends"`
	Tables          []Table                      `json:"tables"`
	Sections        []Section                    `json:"content_sections"`
	Annual          map[string]map[string]string `json:"annual_data"`
	SourceLabel     string                       `json:"source_label"`
}

// LoadReport reads a structured report from a scraped JSON file.
func LoadReport(path string) (*Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("read report file", err)
	}

	report := &Report{}
	if err := json.Unmarshal(content, report); err != nil {
		return nil, helper.NewError("decode report file", err)
	}
	return report, nil
}

// snippet is one rendered markdown snippet, named for its output file.
type snippet struct {
	name    string
	content string
}

// Generator renders a structured report into the markdown knowledge base
// layout consumed by LoadChunks: individual snippets under snippets/, an
// index.md and a combined complete_knowledge_base.md.
type Generator struct {
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

// NewGenerator creates a generator writing below outputDir.
func NewGenerator(outputDir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate renders the report and writes the knowledge base files. It
// returns the number of snippets written.
func (g *Generator) Generate(report *Report) (int, error) {
	if report == nil {
		return 0, fmt.Errorf("report must not be nil")
	}

	label := report.SourceLabel
	if label == "" {
		label = DefaultSourceLabel
	}

	var snippets []snippet
	snippets = append(snippets, metadataSnippet(report, label))
	snippets = append(snippets, metricSnippets(report, label)...)
	snippets = append(snippets, tableSnippets(report.Tables, label)...)
	snippets = append(snippets, sectionSnippets(report.Sections, label)...)
	snippets = append(snippets, annualSnippets(report.Annual, label)...)

	snippetsDir := filepath.Join(g.outputDir, "snippets")
	if err := os.MkdirAll(snippetsDir, 0755); err != nil {
		return 0, helper.NewError("create snippets directory", err)
	}

	for _, s := range snippets {
		path := filepath.Join(snippetsDir, s.name+".md")
		if err := os.WriteFile(path, []byte(s.content), 0644); err != nil {
			return 0, helper.NewError(fmt.Sprintf("write snippet %v", s.name), err)
		}
		g.logger.Debug("snippet written", slog.String("name", s.name))
	}

	if err := g.writeIndex(snippets); err != nil {
		return 0, err
	}
	if err := g.writeCombined(snippets); err != nil {
		return 0, err
	}

	g.logger.Info("knowledge base generated",
		slog.Int("snippets", len(snippets)),
		slog.String("output", g.outputDir))

	return len(snippets), nil
}

func metadataSnippet(report *Report, label string) snippet {
	var b strings.Builder
	b.WriteString("# Document Metadata\n\n")
	fmt.Fprintf(&b, "- **Source URL**: %s\n", report.URL)
	fmt.Fprintf(&b, "- **Scraped At**: %s\n", report.ScrapedAt)
	if report.Title != "" {
		fmt.Fprintf(&b, "- **Title**: %s\n", report.Title)
	}
	if report.Author != "" {
		fmt.Fprintf(&b, "- **Author**: %s\n", report.Author)
	}
	if report.PublicationDate != "" {
		fmt.Fprintf(&b, "- **Publication Date**: %s\n", report.PublicationDate)
	}
	if report.Language != "" {
		fmt.Fprintf(&b, "- **Language**: %s\n", report.Language)
	}
	writeAttribution(&b, label)
	return snippet{name: "metadata", content: b.String()}
}

func metricSnippets(report *Report, label string) []snippet {
	groups := []struct {
		name    string
		title   string
		metrics []Metric
	}{
		{"key_highlights", "Key Waste Management Highlights", report.Highlights},
		{"recycling_rates", "Recycling Rate Trends", report.RecyclingRates},
		{"waste_trends", "Waste Generation Trends", report.WasteTrends},
	}

	var snippets []snippet
	for _, group := range groups {
		if len(group.metrics) == 0 {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", group.title)
		for _, metric := range group.metrics {
			fmt.Fprintf(&b, "- **%s**: %s%s (%s)\n", metric.Metric, metric.Value, metric.Unit, metric.Year)
		}
		writeAttribution(&b, label)
		snippets = append(snippets, snippet{name: group.name, content: b.String()})
	}
	return snippets
}

func tableSnippets(tables []Table, label string) []snippet {
	var snippets []snippet
	for i, table := range tables {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", table.Title)
		if len(table.Headers) > 0 {
			fmt.Fprintf(&b, "| %s |\n", strings.Join(table.Headers, " | "))
			fmt.Fprintf(&b, "|%s\n", strings.Repeat(" --- |", len(table.Headers)))
		}
		for _, row := range table.Rows {
			fmt.Fprintf(&b, "| %s |\n", strings.Join(row, " | "))
		}
		writeAttribution(&b, label)
		snippets = append(snippets, snippet{
			name:    fmt.Sprintf("table_%d_%s", i+1, fileName(table.Title)),
			content: b.String(),
		})
	}
	return snippets
}

func sectionSnippets(sections []Section, label string) []snippet {
	var snippets []snippet
	for i, section := range sections {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", section.Heading)
		for _, paragraph := range section.Paragraphs {
			if strings.TrimSpace(paragraph) == "" {
				continue
			}
			fmt.Fprintf(&b, "%s\n\n", paragraph)
		}
		writeAttribution(&b, label)
		snippets = append(snippets, snippet{
			name:    fmt.Sprintf("content_%d_%s", i+1, fileName(section.Heading)),
			content: b.String(),
		})
	}
	return snippets
}

func annualSnippets(annual map[string]map[string]string, label string) []snippet {
	years := make([]string, 0, len(annual))
	for year := range annual {
		years = append(years, year)
	}
	sort.Strings(years)

	var snippets []snippet
	for _, year := range years {
		data := annual[year]
		keys := make([]string, 0, len(data))
		for key := range data {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var b strings.Builder
		fmt.Fprintf(&b, "# Annual Waste Data - %s\n\n", year)
		for _, key := range keys {
			switch key {
			case "recycling_rate":
				fmt.Fprintf(&b, "- **Recycling Rate**: %s\n", data[key])
			case "waste_generated":
				fmt.Fprintf(&b, "- **Waste Generated**: %s\n", data[key])
			default:
				fmt.Fprintf(&b, "- **%s**: %s\n", keyTitle(key), data[key])
			}
		}
		writeAttribution(&b, label)
		snippets = append(snippets, snippet{name: "annual_data_" + year, content: b.String()})
	}
	return snippets
}

func (g *Generator) writeIndex(snippets []snippet) error {
	var b strings.Builder
	b.WriteString("# Waste Statistics Knowledge Base Index\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", g.now().Format("2006-01-02 15:04:05"))
	b.WriteString("## Available Snippets\n\n")
	for _, s := range snippets {
		title := s.name
		if match := titleRegex.FindStringSubmatch(s.content); match != nil {
			title = match[1]
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", s.name, title)
	}

	path := filepath.Join(g.outputDir, "index.md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return helper.NewError("write index file", err)
	}
	return nil
}

func (g *Generator) writeCombined(snippets []snippet) error {
	var b strings.Builder
	b.WriteString("# Waste Statistics - Complete Knowledge Base\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", g.now().Format("2006-01-02 15:04:05"))
	b.WriteString("---\n\n")
	for _, s := range snippets {
		b.WriteString(s.content)
		b.WriteString("\n\n---\n\n")
	}

	path := filepath.Join(g.outputDir, "complete_knowledge_base.md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return helper.NewError("write combined knowledge base", err)
	}
	return nil
}

func writeAttribution(b *strings.Builder, label string) {
	fmt.Fprintf(b, "\n*Source: %s*\n", label)
}

func fileName(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "_")
}

func keyTitle(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
