package managers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/questdeck/questdeck/internal/domain"
	"github.com/questdeck/questdeck/internal/persistence"
)

// fakeDocumentStore keeps documents as nested maps and interprets
// field-path ops the way the mongo store's update operators would,
// applying each UpdateByID call atomically under one lock.
type fakeDocumentStore struct {
	mu        sync.Mutex
	docs      map[string]map[string]map[string]any
	updateErr error
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{
		docs: map[string]map[string]map[string]any{},
	}
}

func (s *fakeDocumentStore) FindByID(ctx context.Context, collection, id string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[collection][id]
	if !ok {
		return persistence.ErrNotFound
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *fakeDocumentStore) Create(ctx context.Context, collection string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := toMap(doc)
	if err != nil {
		return err
	}

	id, ok := m["_id"].(string)
	if !ok || id == "" {
		return fmt.Errorf("document has no _id")
	}

	if s.docs[collection] == nil {
		s.docs[collection] = map[string]map[string]any{}
	}
	if _, exists := s.docs[collection][id]; exists {
		return fmt.Errorf("duplicate document id %s", id)
	}
	s.docs[collection][id] = m

	return nil
}

// failNextUpdate makes the next UpdateByID call return err.
func (s *fakeDocumentStore) failNextUpdate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = err
}

func (s *fakeDocumentStore) UpdateByID(ctx context.Context, collection, id string, ops ...persistence.FieldOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		err := s.updateErr
		s.updateErr = nil
		return err
	}

	doc, ok := s.docs[collection][id]
	if !ok {
		return persistence.ErrNotFound
	}

	for _, op := range ops {
		if err := applyOp(doc, op); err != nil {
			return err
		}
	}

	return nil
}

func (s *fakeDocumentStore) DeleteByID(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[collection][id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.docs[collection], id)

	return nil
}

func applyOp(doc map[string]any, op persistence.FieldOp) error {
	switch op.Kind {
	case persistence.OpSet:
		parent := ensureParent(doc, op.Path)
		value, err := normalize(op.Value)
		if err != nil {
			return err
		}
		parent[leaf(op.Path)] = value

	case persistence.OpUnset:
		parent, ok := lookupParent(doc, op.Path)
		if ok {
			delete(parent, leaf(op.Path))
		}

	case persistence.OpAddToSet:
		parent := ensureParent(doc, op.Path)
		value, err := normalize(op.Value)
		if err != nil {
			return err
		}
		set, _ := parent[leaf(op.Path)].([]any)
		for _, existing := range set {
			if reflect.DeepEqual(existing, value) {
				return nil
			}
		}
		parent[leaf(op.Path)] = append(set, value)

	case persistence.OpPull:
		parent, ok := lookupParent(doc, op.Path)
		if !ok {
			return nil
		}
		set, _ := parent[leaf(op.Path)].([]any)
		value, err := normalize(op.Value)
		if err != nil {
			return err
		}
		kept := make([]any, 0, len(set))
		for _, existing := range set {
			if !reflect.DeepEqual(existing, value) {
				kept = append(kept, existing)
			}
		}
		parent[leaf(op.Path)] = kept

	case persistence.OpInc:
		parent := ensureParent(doc, op.Path)
		current, _ := parent[leaf(op.Path)].(float64)
		delta, ok := op.Value.(int)
		if !ok {
			return fmt.Errorf("inc expects int delta, got %T", op.Value)
		}
		parent[leaf(op.Path)] = current + float64(delta)

	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}

	return nil
}

func leaf(path persistence.FieldPath) string {
	return path[len(path)-1]
}

func ensureParent(doc map[string]any, path persistence.FieldPath) map[string]any {
	current := doc
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	return current
}

func lookupParent(doc map[string]any, path persistence.FieldPath) (map[string]any, bool) {
	current := doc
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toMap(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// fakeByteStore is an in-memory domain.ByteStore.
type fakeByteStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeByteStore() *fakeByteStore {
	return &fakeByteStore{
		objects: map[string][]byte{},
	}
}

func (s *fakeByteStore) Write(ctx context.Context, id string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = data

	return nil
}

func (s *fakeByteStore) Read(ctx context.Context, id string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[id]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeByteStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.objects[id]
	return ok, nil
}

func (s *fakeByteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, id)
	return nil
}
