package memdbrepository

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

func (s *Store) CreateScenario(_ context.Context, item *models.EnhancedScenario) error {
	if s == nil || item == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&item.CreatedAt, &item.UpdatedAt)
		return insert(txn, scenariosTable, *item)
	})
}

func (s *Store) GetScenario(_ context.Context, id string) (*models.EnhancedScenario, error) {
	if s == nil {
		return nil, nil
	}
	return get[models.EnhancedScenario](s.read(), scenariosTable, id)
}

func (s *Store) GetScenariosByIDs(_ context.Context, ids []string) ([]models.EnhancedScenario, error) {
	if s == nil {
		return nil, nil
	}
	txn := s.read()
	var out []models.EnhancedScenario
	for _, id := range ids {
		item, err := get[models.EnhancedScenario](txn, scenariosTable, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Store) ListScenarios(_ context.Context, params repository.ListScenariosParams) ([]models.EnhancedScenario, error) {
	items, err := s.filterScenarios(params)
	if err != nil {
		return nil, err
	}
	return page(items, params.Limit, params.Offset), nil
}

func (s *Store) CountScenarios(_ context.Context, params repository.ListScenariosParams) (int64, error) {
	items, err := s.filterScenarios(params)
	return int64(len(items)), err
}

func (s *Store) filterScenarios(params repository.ListScenariosParams) ([]models.EnhancedScenario, error) {
	if s == nil {
		return nil, nil
	}
	all, err := scan[models.EnhancedScenario](s.read(), scenariosTable, idIndex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, sc := range all {
		if match(params.WorkspaceID, sc.WorkspaceID) && match(params.GroupID, deref(sc.GroupID)) && match(params.Status, sc.Status) {
			out = append(out, sc)
		}
	}
	sortByTime(out, params.Asc,
		func(sc models.EnhancedScenario) time.Time { return sc.CreatedAt },
		func(sc models.EnhancedScenario) string { return sc.ID })
	return out, nil
}

func (s *Store) SaveScenario(_ context.Context, item *models.EnhancedScenario) error {
	if s == nil || item == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&item.CreatedAt, &item.UpdatedAt)
		return insert(txn, scenariosTable, *item)
	})
}

func (s *Store) CreateScenarioGroup(_ context.Context, item *models.ScenarioGroup) error {
	if s == nil || item == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&item.CreatedAt, &item.UpdatedAt)
		return insert(txn, groupsTable, *item)
	})
}

func (s *Store) GetScenarioGroup(_ context.Context, id string) (*models.ScenarioGroup, error) {
	if s == nil {
		return nil, nil
	}
	return get[models.ScenarioGroup](s.read(), groupsTable, id)
}

func (s *Store) ListScenarioGroups(_ context.Context, workspaceID string) ([]models.ScenarioGroup, error) {
	if s == nil {
		return nil, nil
	}
	all, err := scan[models.ScenarioGroup](s.read(), groupsTable, idIndex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, g := range all {
		if workspaceID == "" || g.WorkspaceID == workspaceID {
			out = append(out, g)
		}
	}
	asc := true
	sortByTime(out, &asc,
		func(g models.ScenarioGroup) time.Time { return g.CreatedAt },
		func(g models.ScenarioGroup) string { return g.ID })
	return out, nil
}

func (s *Store) CreateScenarioTemplate(_ context.Context, item *models.ScenarioTemplate) error {
	if s == nil || item == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&item.CreatedAt, &item.UpdatedAt)
		return insert(txn, templatesTable, *item)
	})
}

func (s *Store) GetScenarioTemplate(_ context.Context, id string) (*models.ScenarioTemplate, error) {
	if s == nil {
		return nil, nil
	}
	return get[models.ScenarioTemplate](s.read(), templatesTable, id)
}

func (s *Store) ListScenarioTemplates(_ context.Context, workspaceID string) ([]models.ScenarioTemplate, error) {
	if s == nil {
		return nil, nil
	}
	all, err := scan[models.ScenarioTemplate](s.read(), templatesTable, idIndex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, t := range all {
		if workspaceID == "" || t.WorkspaceID == workspaceID {
			out = append(out, t)
		}
	}
	asc := true
	sortByTime(out, &asc,
		func(t models.ScenarioTemplate) time.Time { return t.CreatedAt },
		func(t models.ScenarioTemplate) string { return t.ID })
	return out, nil
}

func (s *Store) CreateScenarioComparison(_ context.Context, item *models.ScenarioComparison) error {
	if s == nil || item == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&item.CreatedAt, &item.UpdatedAt)
		return insert(txn, comparisonsTable, *item)
	})
}

func (s *Store) GetScenarioComparison(_ context.Context, id string) (*models.ScenarioComparison, error) {
	if s == nil {
		return nil, nil
	}
	return get[models.ScenarioComparison](s.read(), comparisonsTable, id)
}

func (s *Store) ListScenarioComparisons(_ context.Context, workspaceID string) ([]models.ScenarioComparison, error) {
	if s == nil {
		return nil, nil
	}
	all, err := scan[models.ScenarioComparison](s.read(), comparisonsTable, idIndex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if workspaceID == "" || c.WorkspaceID == workspaceID {
			out = append(out, c)
		}
	}
	sortByTime(out, nil,
		func(c models.ScenarioComparison) time.Time { return c.CreatedAt },
		func(c models.ScenarioComparison) string { return c.ID })
	return out, nil
}

func (s *Store) SaveScenarioComparison(_ context.Context, item *models.ScenarioComparison) error {
	if s == nil || item == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&item.CreatedAt, &item.UpdatedAt)
		return insert(txn, comparisonsTable, *item)
	})
}
