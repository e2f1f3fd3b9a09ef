package entity

// Identity identidad autenticada que ejecuta una operación (viene del token).
type Identity struct {
	UserID      string
	CompanyID   string
	Role        string
	Permissions []string // permisos explícitos además de los del rol
}

// Códigos de permiso consumidos por el libro de movimientos.
const (
	PermissionMovementsCreate = "movements.create"
	PermissionMovementsAnnul  = "movements.annul"
	PermissionMovementsRead   = "movements.read"
)

// Roles conocidos.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)
