package gormrepository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

func (s *Store) UpsertProducts(ctx context.Context, items []models.Product) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"workspace_id",
			"sku",
			"name",
			"value",
			"weight_kg",
			"length_cm",
			"width_cm",
			"height_cm",
			"hs_code",
			"origin_country",
			"destination_country",
			"shipping_method",
			"fulfillment_method",
			"annual_volume",
			"selling_price",
			"alternative_hs_codes",
			"updated_at",
		}),
	}).CreateInBatches(items, 200).Error
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	ids = cleanStrings(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Product
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]models.Product, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := productsQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Product
	if err := query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountProducts(ctx context.Context, params repository.ListProductsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := productsQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func productsQuery(db *gorm.DB, params repository.ListProductsParams) *gorm.DB {
	query := db.Model(&models.Product{})
	if v, ok := strFilter(params.WorkspaceID); ok {
		query = query.Where("workspace_id = ?", v)
	}
	if v, ok := strFilter(params.HSCode); ok {
		query = query.Where("hs_code = ?", v)
	}
	return query
}
