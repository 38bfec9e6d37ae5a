// internal/domain/models/change.go
package models

// ChangeKind tags which payload a Change carries.
type ChangeKind string

const (
	ChangeTextEdit      ChangeKind = "text_edit"
	ChangeImageEdit     ChangeKind = "image_edit"
	ChangeElementAdd    ChangeKind = "element_add"
	ChangeElementRemove ChangeKind = "element_remove"
	ChangeStyleChange   ChangeKind = "style_change"
)

// ChangeKinds is the closed set of change variants.
var ChangeKinds = []ChangeKind{
	ChangeTextEdit,
	ChangeImageEdit,
	ChangeElementAdd,
	ChangeElementRemove,
	ChangeStyleChange,
}

// Change is one edit recorded on a Version. Exactly one payload field is set,
// and it is the one named by Kind.
type Change struct {
	Kind   ChangeKind     `bson:"kind" json:"kind"`
	Text   *TextEdit      `bson:"text,omitempty" json:"text,omitempty"`
	Image  *ImageEdit     `bson:"image,omitempty" json:"image,omitempty"`
	Add    *ElementAdd    `bson:"add,omitempty" json:"add,omitempty"`
	Remove *ElementRemove `bson:"remove,omitempty" json:"remove,omitempty"`
	Style  *StyleChange   `bson:"style,omitempty" json:"style,omitempty"`
}

// TextEdit replaces the text of a caption element.
type TextEdit struct {
	ElementID string `bson:"element_id" json:"element_id"`
	Before    string `bson:"before" json:"before"`
	After     string `bson:"after" json:"after"`
}

// ImageEdit applies an operation (crop, rotate, filter, replace) to the base image.
type ImageEdit struct {
	Operation string             `bson:"operation" json:"operation"`
	Params    map[string]float64 `bson:"params,omitempty" json:"params,omitempty"`
}

// ElementAdd places a new overlay element.
type ElementAdd struct {
	ElementID   string  `bson:"element_id" json:"element_id"`
	ElementType string  `bson:"element_type" json:"element_type"` // text | image | sticker
	X           float64 `bson:"x" json:"x"`
	Y           float64 `bson:"y" json:"y"`
}

// ElementRemove deletes an overlay element.
type ElementRemove struct {
	ElementID string `bson:"element_id" json:"element_id"`
}

// StyleChange alters one style property of an element.
type StyleChange struct {
	ElementID string `bson:"element_id" json:"element_id"`
	Property  string `bson:"property" json:"property"`
	Before    string `bson:"before" json:"before"`
	After     string `bson:"after" json:"after"`
}
