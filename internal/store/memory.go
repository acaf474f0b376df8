package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Database for development and tests. Documents
// live only as long as the process.
type Memory struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memoryCollection)}
}

func (m *Memory) Collection(name string) Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[name]
	if !ok {
		coll = &memoryCollection{unique: UniqueIndexes[name]}
		m.collections[name] = coll
	}
	return coll
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close(ctx context.Context) error { return nil }

type memoryCollection struct {
	mu     sync.Mutex
	docs   []Document
	unique []string
}

func (c *memoryCollection) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (c *memoryCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(filter); i >= 0 {
		return cloneDocument(c.docs[i]), nil
	}
	return nil, ErrNotFound
}

func (c *memoryCollection) Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error) {
	c.mu.Lock()
	matched := make([]Document, 0)
	for _, doc := range c.docs {
		if filter.Match(doc) {
			matched = append(matched, cloneDocument(doc))
		}
	}
	c.mu.Unlock()

	if opts.SortField != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i][opts.SortField], matched[j][opts.SortField])
			if opts.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if opts.Skip > 0 {
		if opts.Skip >= len(matched) {
			return []Document{}, nil
		}
		matched = matched[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	stored := cloneDocument(doc)
	if stored == nil {
		stored = Document{}
	}
	id := uuid.NewString()
	stored[IDField] = id

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.violatesUnique(stored, -1) {
		return "", ErrDuplicate
	}
	c.docs = append(c.docs, stored)
	return id, nil
}

func (c *memoryCollection) UpdateOne(ctx context.Context, filter Filter, update Update) (Document, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(filter)
	if i < 0 {
		return nil, ErrNotFound
	}

	next := cloneDocument(c.docs[i])
	for field, delta := range update.Inc {
		current, _ := toFloat(next[field])
		next[field] = int64(current) + delta
	}
	for field, value := range update.Set {
		next[field] = cloneValue(value)
	}
	if c.violatesUnique(next, i) {
		return nil, ErrDuplicate
	}
	c.docs[i] = next
	return cloneDocument(next), nil
}

func (c *memoryCollection) DeleteOne(ctx context.Context, filter Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(filter)
	if i < 0 {
		return ErrNotFound
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return nil
}

func (c *memoryCollection) indexOf(filter Filter) int {
	for i, doc := range c.docs {
		if filter.Match(doc) {
			return i
		}
	}
	return -1
}

func (c *memoryCollection) violatesUnique(doc Document, skip int) bool {
	for _, field := range c.unique {
		value, ok := doc[field]
		if !ok || value == nil {
			continue
		}
		for i, existing := range c.docs {
			if i == skip {
				continue
			}
			if other, ok := existing[field]; ok && valuesEqual(other, value) {
				return true
			}
		}
	}
	return false
}
