package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(headers ...any) table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row(headers))
	return w
}

func render(w table.Writer) string {
	if rootFlags.markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}
