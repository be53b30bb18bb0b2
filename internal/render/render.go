// Package render turns the client cache into something a person can read.
package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gradebook/internal/model"
)

// EmptyMessage replaces the rows when there is nothing to show.
const EmptyMessage = "No student data. Try adding a few students using the Add Student form!"

type Row struct {
	ID     uint
	Name   string
	Course string
	Grade  int
}

// View is everything a renderer needs: either Rows or a Placeholder, plus
// the average grade.
type View struct {
	Rows        []Row
	Average     int
	Placeholder string
}

// Build derives the view from records. It has no other inputs.
func Build(records []model.Record) View {
	if len(records) == 0 {
		return View{Placeholder: EmptyMessage}
	}
	view := View{Rows: make([]Row, 0, len(records))}
	var total int64
	for _, rec := range records {
		view.Rows = append(view.Rows, Row{ID: rec.ID, Name: rec.Name, Course: rec.Course, Grade: rec.Grade})
		total += int64(rec.Grade)
	}
	view.Average = model.Average(total, int64(len(records)))
	return view
}

// TextRenderer prints views as an aligned table.
type TextRenderer struct {
	out    io.Writer
	errOut io.Writer
}

func NewTextRenderer(out, errOut io.Writer) *TextRenderer {
	return &TextRenderer{out: out, errOut: errOut}
}

func (r *TextRenderer) Render(view View) {
	if view.Placeholder != "" {
		fmt.Fprintln(r.out, view.Placeholder)
	} else {
		tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCOURSE\tGRADE")
		for _, row := range view.Rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", row.ID, row.Name, row.Course, row.Grade)
		}
		tw.Flush()
	}
	fmt.Fprintf(r.out, "Average grade: %d\n", view.Average)
}

func (r *TextRenderer) ShowError(message string) {
	fmt.Fprintln(r.errOut, "error:", message)
}
