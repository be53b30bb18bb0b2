package client

import (
	"sync"

	"gradebook/internal/model"
)

// Cache is the client's ordered, in-memory mirror of the grades table. It
// is never authoritative; the server is.
type Cache struct {
	mu      sync.RWMutex
	records []model.Record
}

func NewCache() *Cache {
	return &Cache{}
}

// Replace swaps the whole content, keeping the given order.
func (c *Cache) Replace(records []model.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(make([]model.Record, 0, len(records)), records...)
}

func (c *Cache) Append(rec model.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

// Update overwrites the entry with rec.ID in place. It reports false when no
// entry has that id.
func (c *Cache) Update(rec model.Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(rec.ID); i >= 0 {
		c.records[i] = rec
		return true
	}
	return false
}

// Remove drops the entry with id. It reports false when there was none.
func (c *Cache) Remove(id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.records = append(c.records[:i], c.records[i+1:]...)
	return true
}

func (c *Cache) Get(id uint) (model.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.records[i], true
	}
	return model.Record{}, false
}

// Snapshot returns a copy of the records in order.
func (c *Cache) Snapshot() []model.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Record(nil), c.records...)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// AverageGrade is the rounded mean grade, 0 when empty.
func (c *Cache) AverageGrade() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, rec := range c.records {
		total += int64(rec.Grade)
	}
	return model.Average(total, int64(len(c.records)))
}

func (c *Cache) index(id uint) int {
	for i, rec := range c.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}
