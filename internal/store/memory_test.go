package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type place struct {
	City  string `bson:"city"`
	State string `bson:"state"`
}

type item struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Email   string             `bson:"email"`
	Count   int                `bson:"count"`
	Deleted bool               `bson:"isDeleted"`
	Where   place              `bson:"where"`
	Token   string             `bson:"token"`
}

func seed(t *testing.T, c *MemoryCollection[item], docs ...item) {
	t.Helper()
	for i := range docs {
		if err := c.Insert(context.Background(), &docs[i]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestMemoryCollection_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[item]("email")
	id := primitive.NewObjectID()
	seed(t, c, item{ID: id, Email: "a@x.com", Count: 3, Where: place{City: "Pune"}})

	got, err := c.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Email != "a@x.com" || got.Count != 3 || got.Where.City != "Pune" {
		t.Errorf("unexpected document %+v", got)
	}

	if _, err := c.FindByID(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	byCount, err := c.FindOne(ctx, bson.M{"count": 3})
	if err != nil || byCount.ID != id {
		t.Errorf("FindOne by int field: %v %v", byCount, err)
	}

	byCity, err := c.FindOne(ctx, bson.M{"where.city": "Pune"})
	if err != nil || byCity.ID != id {
		t.Errorf("FindOne by dotted path: %v %v", byCity, err)
	}
}

func TestMemoryCollection_UniqueFields(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[item]("email")
	seed(t, c, item{ID: primitive.NewObjectID(), Email: "a@x.com"})

	err := c.Insert(ctx, &item{ID: primitive.NewObjectID(), Email: "a@x.com"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// empty values do not collide
	seed(t, c, item{ID: primitive.NewObjectID()}, item{ID: primitive.NewObjectID()})
	if c.Len() != 3 {
		t.Errorf("expected 3 documents, got %d", c.Len())
	}
}

func TestMemoryCollection_FindPaging(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[item]()
	for i := 0; i < 5; i++ {
		seed(t, c, item{ID: primitive.NewObjectID(), Count: i, Deleted: i == 2})
	}

	live, err := c.Find(ctx, bson.M{"isDeleted": false}, Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 4 {
		t.Fatalf("expected 4 live documents, got %d", len(live))
	}

	page, err := c.Find(ctx, bson.M{"isDeleted": false}, Page{Skip: 1, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Count != 1 || page[1].Count != 3 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestMemoryCollection_Set(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[item]("email")
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	seed(t, c,
		item{ID: a, Email: "a@x.com", Where: place{City: "Pune", State: "MH"}},
		item{ID: b, Email: "b@x.com"},
	)

	got, err := c.Set(ctx, ByID(a, nil), bson.M{"where.city": "Mumbai", "count": 7})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got.Where.City != "Mumbai" || got.Where.State != "MH" || got.Count != 7 {
		t.Errorf("unexpected update result %+v", got)
	}

	if _, err := c.Set(ctx, ByID(b, nil), bson.M{"email": "a@x.com"}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	unchanged, _ := c.FindByID(ctx, b)
	if unchanged.Email != "b@x.com" {
		t.Errorf("failed update must not be applied, got %q", unchanged.Email)
	}

	if _, err := c.Set(ctx, ByID(a, bson.M{"isDeleted": true}), bson.M{"count": 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unmatched filter, got %v", err)
	}
}

func TestMemoryCollection_SetIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[item]()
	id := primitive.NewObjectID()
	seed(t, c, item{ID: id, Token: "old"})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Set(ctx, ByID(id, bson.M{"token": "old"}), bson.M{"token": primitive.NewObjectID().Hex()})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one successful swap, got %d", wins)
	}
}
