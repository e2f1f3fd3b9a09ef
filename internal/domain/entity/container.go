package entity

import "time"

// Container contenedor físico de almacenamiento (cámara de frío, estante, despensa).
type Container struct {
	ID        string
	CompanyID string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
