package domain

// Well-known probable-item kinds returned by the analysis service.
const (
	ItemWardrobe = "armario"
	ItemGreeting = "saludo"
	ItemUnknown  = "desconocido"
)

// Clarification fields the analysis service can report as missing.
// Ordering in MissingFields is significant: it dictates the order the
// follow-up questions are asked (door type before door count).
const (
	FieldDoorType  = "tipo_puerta"
	FieldDoorCount = "num_puertas"
)

// ClarificationRequest is the semantic 422 payload produced when a
// description is too ambiguous to price. It lives only until every
// missing field has been resolved.
type ClarificationRequest struct {
	ProbableItemKind string   `json:"MUEBLE_PROBABLE"`
	MissingFields    []string `json:"CAMPOS_FALTANTES,omitempty"`
}

// Missing reports whether the named field is still unresolved.
func (c *ClarificationRequest) Missing(field string) bool {
	for _, f := range c.MissingFields {
		if f == field {
			return true
		}
	}
	return false
}
