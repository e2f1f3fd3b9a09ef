package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
// Los tipos con detalle de abajo responden a errors.Is con su sentinel.
var (
	ErrValidation             = errors.New("entrada inválida")
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrPermissionDenied       = errors.New("permiso denegado")
	ErrAlreadyAnnulled        = errors.New("el movimiento ya está anulado")
	ErrAnnulmentWindowExpired = errors.New("la ventana de anulación expiró")
	ErrConflict               = errors.New("conflicto con una modificación concurrente")
	ErrStorage                = errors.New("falla de persistencia")
)

// ValidationError dato de entrada con forma o rango inválido.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid atajo para construir un ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError entidad referenciada inexistente o no visible para la identidad.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound atajo para construir un NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError el movimiento dejaría el stock en negativo.
type InsufficientStockError struct {
	ProductID   string
	ContainerID string
	Available   decimal.Decimal
	Requested   decimal.Decimal // magnitud del delta negativo que se intentó aplicar
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %s, requerido %s", e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// PermissionDeniedError la identidad no tiene el permiso requerido.
type PermissionDeniedError struct {
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permiso denegado: se requiere %s", e.Permission)
}

func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }

// AnnulmentWindowExpiredError la anulación se pidió fuera de la ventana permitida.
// ElapsedHours se informa con dos decimales para que el operador decida un ajuste compensatorio.
type AnnulmentWindowExpiredError struct {
	MovementID   string
	ElapsedHours decimal.Decimal
	LimitHours   int
}

func (e *AnnulmentWindowExpiredError) Error() string {
	return fmt.Sprintf("no se puede anular: han transcurrido %s horas (límite %d horas)",
		e.ElapsedHours.StringFixed(2), e.LimitHours)
}

func (e *AnnulmentWindowExpiredError) Is(target error) bool { return target == ErrAnnulmentWindowExpired }

// ConflictError contención de bloqueo o modificación concurrente; el llamador puede reintentar.
type ConflictError struct {
	Resource string
	Err      error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conflicto de concurrencia en %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("conflicto de concurrencia en %s", e.Resource)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
func (e *ConflictError) Unwrap() error        { return e.Err }

// StorageError falla de la capa de persistencia. Fatal para la petición; no se reintenta.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("persistencia (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
func (e *StorageError) Unwrap() error        { return e.Err }

// Storage envuelve err como StorageError salvo que ya sea un error de dominio conocido.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError indica si err pertenece a la taxonomía de dominio.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrNotFound, ErrInsufficientStock, ErrPermissionDenied,
		ErrAlreadyAnnulled, ErrAnnulmentWindowExpired, ErrConflict, ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
