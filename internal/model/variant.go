// Package model holds the wire types exchanged with the patient backend.
//
// Studies and analyses are never mutated by the client; an analysis is only ever
// replaced whole by a newer server response.
package model

// Variant is the display emphasis of a status badge.
type Variant string

const (
	VariantPrimary   Variant = "primary"
	VariantInfo      Variant = "info"
	VariantWarning   Variant = "warning"
	VariantSuccess   Variant = "success"
	VariantDanger    Variant = "danger"
	VariantSecondary Variant = "secondary"
)
