// Package htmltomarkdown renders statement tables as Markdown using
// html-to-markdown's table plugin.
package htmltomarkdown

import (
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/finstmt"
)

// Ensure Renderer implements finstmt.TableRenderer at compile time.
var _ finstmt.TableRenderer = (*Renderer)(nil)

// Renderer renders normalized tables as Markdown tables.
type Renderer struct {
	conv *converter.Converter
}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Renderer{conv: conv}
}

// Render returns table as a Markdown table with its columns as header row.
func (r *Renderer) Render(t *finstmt.Table) (string, error) {
	if t.Empty() {
		return "", finstmt.Errorf(finstmt.EINVALID, "empty table")
	}

	result, err := r.conv.ConvertString(tableHTML(t))
	if err != nil {
		return "", err
	}

	return result, nil
}

// tableHTML serializes a table back into minimal HTML markup.
func tableHTML(t *finstmt.Table) string {
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, col := range t.Columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(col))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}
