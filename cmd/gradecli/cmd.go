package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"gradebook/internal/client"
	"gradebook/internal/model"
	"gradebook/internal/render"
)

var errHelp = errors.New("help provided")

// statsAPI is the part of the client the stats command needs.
type statsAPI interface {
	Stats(ctx context.Context) (model.Stats, error)
}

type commandLine struct {
	api    statsAPI
	ctrl   *client.Controller
	out    *deferredRenderer
	stdout io.Writer
}

// deferredRenderer keeps only the latest view so that a run prints the
// table once, after its last change. Errors go out immediately.
type deferredRenderer struct {
	text *render.TextRenderer
	last *render.View
}

func (r *deferredRenderer) Render(view render.View) {
	r.last = &view
}

func (r *deferredRenderer) ShowError(message string) {
	r.text.ShowError(message)
}

func (r *deferredRenderer) flush() {
	if r.last != nil {
		r.text.Render(*r.last)
		r.last = nil
	}
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  list                                     - list all records and the average grade")
	fmt.Println("  add -name NAME -course COURSE -grade N   - add a record")
	fmt.Println("  edit -id ID -name NAME -course COURSE -grade N - replace a record")
	fmt.Println("  delete -id ID                            - delete a record")
	fmt.Println("  stats                                    - record count and average computed by the server")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	addCmd := flag.NewFlagSet("add", flag.ContinueOnError)
	addName := addCmd.String("name", "", "Student name")
	addCourse := addCmd.String("course", "", "Course")
	addGrade := addCmd.String("grade", "", "Grade between 0 and 100")

	editCmd := flag.NewFlagSet("edit", flag.ContinueOnError)
	editID := editCmd.String("id", "", "Record id")
	editName := editCmd.String("name", "", "Student name")
	editCourse := editCmd.String("course", "", "Course")
	editGrade := editCmd.String("grade", "", "Grade between 0 and 100")

	deleteCmd := flag.NewFlagSet("delete", flag.ContinueOnError)
	deleteID := deleteCmd.String("id", "", "Record id")

	var err error
	switch args[1] {
	case "list":
		err = cli.ctrl.Refresh(ctx)
	case "add":
		if err = addCmd.Parse(args[2:]); err != nil {
			return err
		}
		err = cli.add(ctx, *addName, *addCourse, *addGrade)
	case "edit":
		if err = editCmd.Parse(args[2:]); err != nil {
			return err
		}
		err = cli.edit(ctx, *editID, *editName, *editCourse, *editGrade)
	case "delete":
		if err = deleteCmd.Parse(args[2:]); err != nil {
			return err
		}
		err = cli.remove(ctx, *deleteID)
	case "stats":
		return cli.stats(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
	cli.out.flush()
	return err
}

func (cli *commandLine) add(ctx context.Context, name, course, grade string) error {
	draft, err := model.ParseDraft(name, course, grade)
	if err != nil {
		cli.out.ShowError(client.Message(err))
		return err
	}
	if err := cli.ctrl.Refresh(ctx); err != nil {
		return err
	}
	_, err = cli.ctrl.AddRecord(ctx, draft)
	return err
}

func (cli *commandLine) edit(ctx context.Context, rawID, name, course, grade string) error {
	id, err := model.ParseID(rawID)
	if err != nil {
		cli.out.ShowError(client.Message(err))
		return err
	}
	draft, err := model.ParseDraft(name, course, grade)
	if err != nil {
		cli.out.ShowError(client.Message(err))
		return err
	}
	if err := cli.ctrl.Refresh(ctx); err != nil {
		return err
	}
	_, err = cli.ctrl.EditRecord(ctx, id, draft)
	return err
}

func (cli *commandLine) remove(ctx context.Context, rawID string) error {
	id, err := model.ParseID(rawID)
	if err != nil {
		cli.out.ShowError(client.Message(err))
		return err
	}
	if err := cli.ctrl.Refresh(ctx); err != nil {
		return err
	}
	return cli.ctrl.RemoveRecord(ctx, id)
}

func (cli *commandLine) stats(ctx context.Context) error {
	stats, err := cli.api.Stats(ctx)
	if err != nil {
		cli.out.ShowError(client.Message(err))
		return err
	}
	w := cli.stdout
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "Records: %d\nAverage grade: %d\n", stats.Count, stats.Average)
	return nil
}
