package selectorconfig

// Shape is the top-level layout of a selector config document
type Shape int

const (
	// ShapeSingle is a bare object describing one selector
	ShapeSingle Shape = iota
	// ShapeList is an array of selector objects
	ShapeList
	// ShapeWrapped is an object whose "selectors" key holds the array
	ShapeWrapped
)

// String returns the shape name
func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeList:
		return "list"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "unknown"
	}
}

// Document is a loaded selector config
type Document struct {
	Path  string `json:"path"`
	Shape Shape  `json:"-"`
	Specs []Spec `json:"specs"`
}

// Spec describes one selector to run
// ⭐ SSOT: 설정 파일의 선택기 항목 (정규화 후)
type Spec struct {
	Index      int                    `json:"index"` // 0-based position in the source document
	Type       string                 `json:"type"`
	Alias      string                 `json:"alias"`
	Parameters map[string]interface{} `json:"parameters"`
	Active     bool                   `json:"active"`
}

// ActiveSpecs returns the specs that should run, in order
func (d *Document) ActiveSpecs() []Spec {
	out := make([]Spec, 0, len(d.Specs))
	for _, s := range d.Specs {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// key synonyms accepted in selector objects
var (
	typeKeys   = []string{"type", "class"}
	paramKeys  = []string{"parameters", "params"}
	activeKeys = []string{"active", "activate"}
)
