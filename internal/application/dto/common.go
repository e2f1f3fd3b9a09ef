package dto

// ErrorResponse cuerpo de error HTTP.
// Details lleva datos estructurados del error (p. ej. disponible/requerido en stock insuficiente).
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
