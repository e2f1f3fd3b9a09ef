package entity

import "time"

// Product insumo del catálogo (propiedad del colaborador de catálogo; aquí solo se lee).
type Product struct {
	ID          string
	CompanyID   string
	CategoryID  string
	SKU         string // código único por empresa
	Name        string
	UnitMeasure string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
