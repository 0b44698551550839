package output

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// BuildSummary contains data for the build list table.
type BuildSummary struct {
	Name      string
	Vendor    string
	Release   string
	Sources   string
	WithDebug bool
	WithTests bool
}

// ImageSummary contains data for the image list table.
type ImageSummary struct {
	Repository string
	Tag        string
	Created    time.Time
	Size       int64
}

// Builds prints the configured builds table.
func (p *Printer) Builds(builds []BuildSummary) {
	if len(builds) == 0 {
		p.Println("no builds configured")
		return
	}

	p.Section("BUILDS")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())

	t.AppendHeader(table.Row{"Name", "Vendor", "Release", "Sources", "Options"})

	for _, b := range builds {
		var opts []string
		if b.WithDebug {
			opts = append(opts, "debug")
		}
		if b.WithTests {
			opts = append(opts, "tests")
		}
		t.AppendRow(table.Row{b.Name, b.Vendor, b.Release, b.Sources, strings.Join(opts, ",")})
	}

	t.Render()
	p.Println()
}

// Images prints the build image table, newest first.
func (p *Printer) Images(images []ImageSummary) {
	if len(images) == 0 {
		p.Println("no build images found")
		return
	}

	p.Section("IMAGES")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())

	t.AppendHeader(table.Row{"Repository", "Tag", "Created", "Size"})

	for _, img := range images {
		tag := img.Tag
		if p.isTTY && tag == "latest" {
			tag = lipgloss.NewStyle().Foreground(ColorGreen).Render(tag)
		}
		t.AppendRow(table.Row{
			img.Repository,
			tag,
			humanize.Time(img.Created),
			humanize.IBytes(uint64(img.Size)),
		})
	}

	t.Render()
	p.Println()
}

// tableStyle returns the standard table style.
func (p *Printer) tableStyle() table.Style {
	style := table.StyleRounded
	if p.isTTY {
		style.Color.Header = text.Colors{text.FgHiCyan, text.Bold}
		style.Color.Border = text.Colors{text.FgHiBlack}
	}
	style.Options.SeparateRows = false
	return style
}
