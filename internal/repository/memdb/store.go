// Package memdbrepository is an in-process Repository backed by go-memdb. It is used by tests
// and by single-node deployments started with db.driver=memory.
package memdbrepository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

const (
	jobsTable            = "jobs"
	jobResultsTable      = "job_results"
	productsTable        = "products"
	recommendationsTable = "recommendations"
	scenariosTable       = "scenarios"
	groupsTable          = "scenario_groups"
	templatesTable       = "scenario_templates"
	comparisonsTable     = "scenario_comparisons"
	settingsTable        = "system_settings"

	idIndex     = "id"
	statusIndex = "status"
)

type Store struct {
	db  *memdb.MemDB
	now func() time.Time
}

var _ repository.Repository = (*Store)(nil)

func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func schema() *memdb.DBSchema {
	byID := func(field string) *memdb.IndexSchema {
		return &memdb.IndexSchema{Name: idIndex, Unique: true, Indexer: &memdb.StringFieldIndex{Field: field}}
	}
	byStatus := &memdb.IndexSchema{Name: statusIndex, AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "Status"}}
	table := func(name string, indexes ...*memdb.IndexSchema) *memdb.TableSchema {
		t := &memdb.TableSchema{Name: name, Indexes: map[string]*memdb.IndexSchema{}}
		for _, idx := range indexes {
			t.Indexes[idx.Name] = idx
		}
		return t
	}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			jobsTable:            table(jobsTable, byID("ID"), byStatus),
			jobResultsTable:      table(jobResultsTable, byID("JobID")),
			productsTable:        table(productsTable, byID("ID")),
			recommendationsTable: table(recommendationsTable, byID("ID"), byStatus),
			scenariosTable:       table(scenariosTable, byID("ID")),
			groupsTable:          table(groupsTable, byID("ID")),
			templatesTable:       table(templatesTable, byID("ID")),
			comparisonsTable:     table(comparisonsTable, byID("ID")),
			settingsTable:        table(settingsTable, byID("Key")),
		},
	}
}

// Stored objects are never mutated in place; every write inserts a fresh copy.

func get[T any](txn *memdb.Txn, table, id string) (*T, error) {
	if id == "" {
		return nil, nil
	}
	raw, err := txn.First(table, idIndex, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if raw == nil {
		return nil, nil
	}
	cp := *raw.(*T)
	return &cp, nil
}

func scan[T any](txn *memdb.Txn, table, index string, args ...any) ([]T, error) {
	iter, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var out []T
	for obj := iter.Next(); obj != nil; obj = iter.Next() {
		out = append(out, *obj.(*T))
	}
	return out, nil
}

func insert[T any](txn *memdb.Txn, table string, item T) error {
	return errors.WithStack(txn.Insert(table, &item))
}

func (s *Store) read() *memdb.Txn {
	return s.db.Txn(false)
}

// write runs fn in a write transaction and commits when fn returns nil.
func (s *Store) write(fn func(txn *memdb.Txn) error) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 200
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// sortByTime orders by the key, descending unless asc is set; ties are broken by id.
func sortByTime[T any](items []T, asc *bool, key func(T) time.Time, id func(T) string) {
	ascending := asc != nil && *asc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if !a.Equal(b) {
			if ascending {
				return a.Before(b)
			}
			return a.After(b)
		}
		return id(items[i]) < id(items[j])
	})
}

func match(filter *string, value string) bool {
	if filter == nil {
		return true
	}
	f := strings.TrimSpace(*filter)
	return f == "" || f == value
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if strings.TrimSpace(item) == v {
			return true
		}
	}
	return false
}

func (s *Store) stamp(created *time.Time, updated *time.Time) {
	now := s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func (s *Store) UpsertSystemSetting(_ context.Context, item *models.SystemSetting) error {
	if s == nil || item == nil {
		return nil
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		existing, err := get[models.SystemSetting](txn, settingsTable, item.Key)
		if err != nil {
			return err
		}
		if existing != nil {
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
		} else {
			n, err := txn.Get(settingsTable, idIndex)
			if err != nil {
				return errors.WithStack(err)
			}
			var count uint64
			for obj := n.Next(); obj != nil; obj = n.Next() {
				count++
			}
			item.ID = count + 1
		}
		s.stamp(&item.CreatedAt, &item.UpdatedAt)
		return insert(txn, settingsTable, *item)
	})
}

func (s *Store) GetSystemSettingByKey(_ context.Context, key string) (*models.SystemSetting, error) {
	if s == nil {
		return nil, nil
	}
	return get[models.SystemSetting](s.read(), settingsTable, strings.TrimSpace(key))
}

func (s *Store) ListSystemSettings(_ context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	items, err := s.filterSettings(params)
	if err != nil {
		return nil, err
	}
	return page(items, params.Limit, params.Offset), nil
}

func (s *Store) CountSystemSettings(_ context.Context, params repository.ListSystemSettingsParams) (int64, error) {
	items, err := s.filterSettings(params)
	return int64(len(items)), err
}

func (s *Store) filterSettings(params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	if s == nil {
		return nil, nil
	}
	all, err := scan[models.SystemSetting](s.read(), settingsTable, idIndex)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if params.Prefix != nil {
		prefix = strings.TrimSpace(*params.Prefix)
	}
	out := all[:0]
	for _, item := range all {
		if strings.HasPrefix(item.Key, prefix) {
			out = append(out, item)
		}
	}
	// the id index already yields keys in ascending order
	if params.Asc != nil && !*params.Asc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}
