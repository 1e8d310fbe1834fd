package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"landedcost/internal/costmodel"
)

// Product is the catalog entry the engine analyzes. Money and measures are numeric.
type Product struct {
	ID          string `gorm:"type:varchar(64);primaryKey" json:"id"`
	WorkspaceID string `gorm:"type:varchar(64);not null;index" json:"workspace_id"`
	SKU         string `gorm:"type:varchar(120);index" json:"sku"`
	Name        string `gorm:"type:varchar(255)" json:"name"`

	Value    decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"value"`
	WeightKg decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"weight_kg"`
	LengthCm decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"length_cm"`
	WidthCm  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"width_cm"`
	HeightCm decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"height_cm"`

	HSCode             string `gorm:"type:varchar(20);not null;index" json:"hs_code"`
	OriginCountry      string `gorm:"type:varchar(2);not null" json:"origin_country"`
	DestinationCountry string `gorm:"type:varchar(2);not null" json:"destination_country"`
	ShippingMethod     string `gorm:"type:varchar(40)" json:"shipping_method"`
	FulfillmentMethod  string `gorm:"type:varchar(40)" json:"fulfillment_method"`

	AnnualVolume       int64            `gorm:"not null;default:0" json:"annual_volume"`
	SellingPrice       *decimal.Decimal `gorm:"type:numeric(30,10)" json:"selling_price,omitempty"`
	AlternativeHSCodes datatypes.JSON   `gorm:"type:jsonb" json:"alternative_hs_codes,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p Product) CostModel() costmodel.Product {
	var alts []string
	if len(p.AlternativeHSCodes) > 0 {
		_ = json.Unmarshal(p.AlternativeHSCodes, &alts)
	}
	return costmodel.Product{
		ID:                 p.ID,
		SKU:                p.SKU,
		Name:               p.Name,
		Value:              p.Value,
		WeightKg:           p.WeightKg,
		Dimensions:         costmodel.Dimensions{LengthCm: p.LengthCm, WidthCm: p.WidthCm, HeightCm: p.HeightCm},
		HSCode:             p.HSCode,
		OriginCountry:      p.OriginCountry,
		DestinationCountry: p.DestinationCountry,
		ShippingMethod:     p.ShippingMethod,
		FulfillmentMethod:  p.FulfillmentMethod,
		AnnualVolume:       p.AnnualVolume,
		SellingPrice:       p.SellingPrice,
		AlternativeHSCodes: alts,
	}
}
