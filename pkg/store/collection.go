package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/cuemby/foreman/pkg/ids"
)

// EntityPtr constrains a generic type parameter T to pointer receivers that
// implement Entity — the shape every Foreman record pointer satisfies.
type EntityPtr[T any] interface {
	*T
	Entity
}

// Insert stamps timestamps and, if absent, an ID generated from prefix,
// then adds rec to collection.
func Insert[T any, P EntityPtr[T]](s *Store, collection, prefix string, rec P) error {
	if rec.GetID() == "" {
		rec.SetID(ids.New(prefix))
	}
	now := time.Now()
	rec.SetCreatedAt(now)
	rec.SetUpdatedAt(now)
	return s.withLock(func(snap *snapshot) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return ferrors.Wrap(ferrors.StorageError, err)
		}
		col := snap.Collections[collection]
		if col == nil {
			col = make(map[string]json.RawMessage)
			snap.Collections[collection] = col
		}
		col[rec.GetID()] = data
		return nil
	})
}

// Get returns the record with id in collection, or ok=false if absent.
func Get[T any, P EntityPtr[T]](s *Store, collection, id string) (P, bool, error) {
	snap, err := s.readSnapshot()
	if err != nil {
		return nil, false, err
	}
	raw, ok := snap.Collections[collection][id]
	if !ok {
		return nil, false, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, ferrors.Wrap(ferrors.StorageError, err)
	}
	return P(&v), true, nil
}

// Fetch is Get but returns a not_found error instead of ok=false.
func Fetch[T any, P EntityPtr[T]](s *Store, collection, id string) (P, error) {
	rec, ok, err := Get[T, P](s, collection, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ferrors.NotFoundf("%s/%s", collection, id)
	}
	return rec, nil
}

// Put upserts rec, stamping UpdatedAt (and CreatedAt, if this is the first
// time the ID is seen).
func Put[T any, P EntityPtr[T]](s *Store, collection string, rec P) error {
	if rec.GetID() == "" {
		return ferrors.MissingFieldsf("id")
	}
	rec.SetUpdatedAt(time.Now())
	if rec.GetCreatedAt().IsZero() {
		rec.SetCreatedAt(time.Now())
	}
	return s.withLock(func(snap *snapshot) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return ferrors.Wrap(ferrors.StorageError, err)
		}
		col := snap.Collections[collection]
		if col == nil {
			col = make(map[string]json.RawMessage)
			snap.Collections[collection] = col
		}
		col[rec.GetID()] = data
		return nil
	})
}

// Delete removes id from collection, or returns not_found if absent.
func Delete(s *Store, collection, id string) error {
	return s.withLock(func(snap *snapshot) error {
		col := snap.Collections[collection]
		if col == nil {
			return ferrors.NotFoundf("%s/%s", collection, id)
		}
		if _, ok := col[id]; !ok {
			return ferrors.NotFoundf("%s/%s", collection, id)
		}
		delete(col, id)
		return nil
	})
}

// All returns every record in collection, ordered by ID for stable output.
func All[T any, P EntityPtr[T]](s *Store, collection string) ([]P, error) {
	snap, err := s.readSnapshot()
	if err != nil {
		return nil, err
	}
	col := snap.Collections[collection]
	out := make([]P, 0, len(col))
	for _, raw := range col {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, ferrors.Wrap(ferrors.StorageError, err)
		}
		out = append(out, P(&v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetID() < out[j].GetID() })
	return out, nil
}

// Filter returns every record in collection matching pred, stable-ordered.
func Filter[T any, P EntityPtr[T]](s *Store, collection string, pred func(P) bool) ([]P, error) {
	all, err := All[T, P](s, collection)
	if err != nil {
		return nil, err
	}
	out := make([]P, 0, len(all))
	for _, rec := range all {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FindOne returns the first record matching pred, or ok=false if none.
func FindOne[T any, P EntityPtr[T]](s *Store, collection string, pred func(P) bool) (P, bool, error) {
	matches, err := Filter[T, P](s, collection, pred)
	if err != nil {
		return nil, false, err
	}
	if len(matches) == 0 {
		return nil, false, nil
	}
	return matches[0], true, nil
}

// Count returns the number of records in collection matching pred. A nil
// pred counts the whole collection.
func Count[T any, P EntityPtr[T]](s *Store, collection string, pred func(P) bool) (int, error) {
	if pred == nil {
		snap, err := s.readSnapshot()
		if err != nil {
			return 0, err
		}
		return len(snap.Collections[collection]), nil
	}
	matches, err := Filter[T, P](s, collection, pred)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// UpdateMatching applies mutate to every record in collection matching
// pred, committing all changes in a single locked read-mutate-write cycle.
// It returns the number of records mutated.
func UpdateMatching[T any, P EntityPtr[T]](s *Store, collection string, pred func(P) bool, mutate func(P)) (int, error) {
	count := 0
	err := s.withLock(func(snap *snapshot) error {
		col := snap.Collections[collection]
		if col == nil {
			return nil
		}
		for id, raw := range col {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return ferrors.Wrap(ferrors.StorageError, err)
			}
			rec := P(&v)
			if !pred(rec) {
				continue
			}
			mutate(rec)
			rec.SetUpdatedAt(time.Now())
			data, err := json.Marshal(rec)
			if err != nil {
				return ferrors.Wrap(ferrors.StorageError, err)
			}
			col[id] = data
			count++
		}
		return nil
	})
	return count, err
}
