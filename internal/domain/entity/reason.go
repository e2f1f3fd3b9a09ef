package entity

// Reason motivo de movimiento. Fija el tipo (ENTRADA/SALIDA/AJUSTE) y las políticas del movimiento.
type Reason struct {
	ID                string
	CompanyID         string
	Name              string
	Kind              MovementKind
	RequiresContainer bool // false = motivo sin contenedor
	AllowsNegative    bool // solo AJUSTE: permite corregir dejando stock negativo
	Active            bool
}
