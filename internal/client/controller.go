package client

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"gradebook/internal/model"
	"gradebook/internal/render"
)

// API is the subset of the records API the controller drives.
type API interface {
	List(ctx context.Context) ([]model.Record, error)
	Create(ctx context.Context, draft model.Draft) (model.Record, error)
	Update(ctx context.Context, id uint, draft model.Draft) (model.Record, error)
	Delete(ctx context.Context, id uint) error
}

// Renderer displays the cache. Render receives the full view after every
// change; ShowError receives a user-facing message.
type Renderer interface {
	Render(view render.View)
	ShowError(message string)
}

// Controller keeps a Cache in sync with the server. Changes are applied to
// the cache only after the server confirms them, and at most one request
// (refresh included) is in flight at a time.
type Controller struct {
	api      API
	cache    *Cache
	renderer Renderer
	logger   *log.Logger
	sem      *semaphore.Weighted
	reject   bool
}

type ControllerOption func(*Controller)

// RejectWhenBusy makes overlapping calls fail with ErrBusy instead of
// waiting their turn.
func RejectWhenBusy() ControllerOption {
	return func(c *Controller) { c.reject = true }
}

func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

func NewController(api API, renderer Renderer, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:      api,
		cache:    NewCache(),
		renderer: renderer,
		sem:      semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Records returns a snapshot of the cache.
func (c *Controller) Records() []model.Record {
	return c.cache.Snapshot()
}

func (c *Controller) AverageGrade() int {
	return c.cache.AverageGrade()
}

// Refresh replaces the cache with the server's records.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.serialize(ctx, func() error {
		records, err := c.api.List(ctx)
		if err != nil {
			return err
		}
		c.cache.Replace(records)
		return nil
	})
}

// AddRecord validates draft locally, creates it on the server and appends
// the stored record to the cache.
func (c *Controller) AddRecord(ctx context.Context, draft model.Draft) (model.Record, error) {
	var rec model.Record
	if err := draft.Validate(); err != nil {
		return rec, c.fail(err)
	}
	err := c.serialize(ctx, func() error {
		created, err := c.api.Create(ctx, draft)
		if err != nil {
			return err
		}
		rec = created
		c.cache.Append(created)
		return nil
	})
	return rec, err
}

// EditRecord replaces record id on the server and then in the cache,
// keeping its position. If the server accepts the change but the cache has
// no such record, the cache is left alone and ErrCacheInconsistent is
// returned.
func (c *Controller) EditRecord(ctx context.Context, id uint, draft model.Draft) (model.Record, error) {
	var rec model.Record
	if err := draft.Validate(); err != nil {
		return rec, c.fail(err)
	}
	err := c.serialize(ctx, func() error {
		updated, err := c.api.Update(ctx, id, draft)
		if err != nil {
			return err
		}
		rec = updated
		if !c.cache.Update(updated) {
			return errors.Wrapf(ErrCacheInconsistent, "record %d", id)
		}
		return nil
	})
	return rec, err
}

// RemoveRecord deletes record id on the server and then from the cache. A
// record the server no longer has is treated as already deleted.
func (c *Controller) RemoveRecord(ctx context.Context, id uint) error {
	return c.serialize(ctx, func() error {
		if err := c.api.Delete(ctx, id); err != nil {
			if !IsNotFound(err) {
				return err
			}
			c.logf("record %d already gone on the server", id)
		}
		c.cache.Remove(id)
		return nil
	})
}

// serialize runs fn while holding the single request slot, re-renders the
// cache afterwards and reports failures to the renderer.
func (c *Controller) serialize(ctx context.Context, fn func() error) error {
	if c.reject {
		if !c.sem.TryAcquire(1) {
			return c.fail(ErrBusy)
		}
	} else if err := c.sem.Acquire(ctx, 1); err != nil {
		return c.fail(errors.Wrap(err, "waiting for pending change"))
	}
	defer c.sem.Release(1)

	err := fn()
	if err == nil || errors.Is(err, ErrCacheInconsistent) {
		c.render()
	}
	if err != nil {
		return c.fail(err)
	}
	return nil
}

func (c *Controller) render() {
	if c.renderer != nil {
		c.renderer.Render(render.Build(c.cache.Snapshot()))
	}
}

func (c *Controller) fail(err error) error {
	c.logf("%v", err)
	if c.renderer != nil {
		c.renderer.ShowError(Message(err))
	}
	return err
}

func (c *Controller) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Message turns err into the text shown to users.
func Message(err error) string {
	var (
		tErr *TransportError
		rErr *RemoteError
		vErr *model.ValidationError
	)
	switch {
	case errors.As(err, &tErr):
		return ConnectivityMessage
	case errors.As(err, &rErr):
		return rErr.Message
	case errors.As(err, &vErr):
		msg := "Please confirm all fields are filled out correctly:"
		for _, fld := range vErr.Fields {
			msg += " " + fld.Error + "."
		}
		return msg
	}
	return err.Error()
}
