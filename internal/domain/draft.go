package domain

// BudgetDetail is one resolved line of the running budget summary.
type BudgetDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// BreakdownItem is one quoted furniture line item.
type BreakdownItem struct {
	Item           string  `json:"item"`
	Quantity       int     `json:"cantidad"`
	UnitPrice      float64 `json:"precio_unitario"`
	Subtotal       float64 `json:"subtotal"`
	NeedsAnchoring bool    `json:"necesita_anclaje"`
}

// Breakdown is the full priced-quote breakdown returned by the pricing
// service and submitted back with the published job.
type Breakdown struct {
	BaseFurnitureCost float64         `json:"coste_muebles_base"`
	TravelCost        float64         `json:"coste_desplazamiento"`
	DistanceKm        string          `json:"distancia_km"`
	AnchoringCost     float64         `json:"coste_anclaje_estimado"`
	TotalExtras       float64         `json:"total_extras"`
	Items             []BreakdownItem `json:"muebles_cotizados"`
}

// JobDraft accumulates the job being described over the conversation.
// Fields are write-once per session except FreeTextDescription, which
// clarification rounds replace with the concatenated form.
type JobDraft struct {
	ClientName          string         `json:"client_name"`
	FreeTextDescription string         `json:"description"`
	ImageRefs           []string       `json:"image_refs,omitempty"`
	ImageLabels         []string       `json:"image_labels,omitempty"`
	Anchoring           string         `json:"anchoring,omitempty"`
	Address             string         `json:"address,omitempty"`
	PriceBase           float64        `json:"price_base,omitempty"`
	Breakdown           *Breakdown     `json:"breakdown,omitempty"`
	Analysis            *Analysis      `json:"-"`
	DoorType            string         `json:"door_type,omitempty"`
	DoorCount           int            `json:"door_count,omitempty"`
	Summary             []BudgetDetail `json:"summary,omitempty"`
}

// HasImages reports whether any uploaded image made it into the draft.
func (d *JobDraft) HasImages() bool {
	return len(d.ImageRefs) > 0
}
