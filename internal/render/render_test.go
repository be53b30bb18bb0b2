package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gradebook/internal/model"
)

func TestBuild(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		view := Build(nil)
		assert.Empty(t, view.Rows)
		assert.Equal(t, EmptyMessage, view.Placeholder)
		assert.Equal(t, 0, view.Average)
	})

	t.Run("rows in order", func(t *testing.T) {
		view := Build([]model.Record{
			{ID: 2, Name: "B", Course: "X", Grade: 85},
			{ID: 1, Name: "A", Course: "X", Grade: 90},
		})
		assert.Empty(t, view.Placeholder)
		assert.Equal(t, []Row{
			{ID: 2, Name: "B", Course: "X", Grade: 85},
			{ID: 1, Name: "A", Course: "X", Grade: 90},
		}, view.Rows)
		assert.Equal(t, 88, view.Average)
	})
}

func TestTextRenderer(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewTextRenderer(&out, &errOut)

	r.Render(Build([]model.Record{{ID: 1, Name: "Ada", Course: "CS", Grade: 95}}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "COURSE", "GRADE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "Ada", "CS", "95"}, strings.Fields(lines[1]))
	assert.Equal(t, "Average grade: 95", lines[2])

	out.Reset()
	r.Render(Build(nil))
	assert.Equal(t, EmptyMessage+"\nAverage grade: 0\n", out.String())

	r.ShowError("Unable to connect to server.")
	assert.Equal(t, "error: Unable to connect to server.\n", errOut.String())
}
