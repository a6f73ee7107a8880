package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCollection keeps documents as bson maps in insertion order. Filters
// support equality on top-level and dotted paths, which is everything the
// services issue.
type MemoryCollection[T any] struct {
	mu     sync.RWMutex
	docs   []bson.M
	unique []string
}

// NewMemoryCollection creates an empty collection enforcing uniqueness on
// the given field paths. Empty values are not subject to uniqueness.
func NewMemoryCollection[T any](unique ...string) *MemoryCollection[T] {
	return &MemoryCollection[T]{unique: unique}
}

func (c *MemoryCollection[T]) Insert(ctx context.Context, doc *T) error {
	m, err := toDoc(doc)
	if err != nil {
		return err
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(bson.M{"_id": m["_id"]}) >= 0 {
		return fmt.Errorf("%w: _id", ErrDuplicateKey)
	}
	if err := c.checkUnique(m, -1); err != nil {
		return err
	}
	c.docs = append(c.docs, m)
	return nil
}

func (c *MemoryCollection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, bson.M{"_id": id})
}

func (c *MemoryCollection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(filter)
	if i < 0 {
		return nil, ErrNotFound
	}
	return fromDoc[T](c.docs[i])
}

func (c *MemoryCollection[T]) Find(ctx context.Context, filter bson.M, page Page) ([]*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	want := normalizeFilter(filter)
	out := make([]*T, 0)
	var skipped int64
	for _, d := range c.docs {
		if !matches(d, want) {
			continue
		}
		if skipped < page.Skip {
			skipped++
			continue
		}
		doc, err := fromDoc[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
		if page.Limit > 0 && int64(len(out)) >= page.Limit {
			break
		}
	}
	return out, nil
}

func (c *MemoryCollection[T]) Set(ctx context.Context, filter bson.M, fields bson.M) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(filter)
	if i < 0 {
		return nil, ErrNotFound
	}

	updated, err := clone(c.docs[i])
	if err != nil {
		return nil, err
	}
	for path, v := range fields {
		setPath(updated, path, normalize(v))
	}
	if err := c.checkUnique(updated, i); err != nil {
		return nil, err
	}
	c.docs[i] = updated
	return fromDoc[T](updated)
}

// Len reports how many documents are stored, deleted or not.
func (c *MemoryCollection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *MemoryCollection[T]) indexOf(filter bson.M) int {
	want := normalizeFilter(filter)
	for i, d := range c.docs {
		if matches(d, want) {
			return i
		}
	}
	return -1
}

func (c *MemoryCollection[T]) checkUnique(doc bson.M, self int) error {
	for _, path := range c.unique {
		v, ok := lookup(doc, path)
		if !ok || isEmpty(v) {
			continue
		}
		for i, other := range c.docs {
			if i == self {
				continue
			}
			if ov, ok := lookup(other, path); ok && reflect.DeepEqual(ov, v) {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, path)
			}
		}
	}
	return nil
}

func matches(doc bson.M, filter bson.M) bool {
	for path, want := range filter {
		got, ok := lookup(doc, path)
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case bson.M:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case primitive.D:
			v, ok := node.Map()[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func setPath(doc bson.M, path string, v any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(bson.M)
		if !ok {
			if d, isD := cur[part].(primitive.D); isD {
				next = d.Map()
			} else {
				next = bson.M{}
			}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// normalize passes a value through the bson codec so that it compares equal
// to the decoded form of a stored document (e.g. int becomes int32).
func normalize(v any) any {
	raw, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return v
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out["v"]
}

func normalizeFilter(filter bson.M) bson.M {
	out := make(bson.M, len(filter))
	for k, v := range filter {
		out[k] = normalize(v)
	}
	return out
}

func toDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return m, nil
}

func clone(m bson.M) (bson.M, error) {
	return toDoc(m)
}

func fromDoc[T any](m bson.M) (*T, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
