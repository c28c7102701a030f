// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

// Kind says whether a domain holds one record or a list.
type Kind int

const (
	KindList Kind = iota
	KindSingleton
)

// Op is a set of operations a domain supports.
type Op uint8

const (
	OpFetch Op = 1 << iota
	OpCreate
	OpUpdate
	OpDelete

	OpsReadDelete = OpFetch | OpDelete
	OpsCRUD       = OpFetch | OpCreate | OpUpdate | OpDelete
	OpsSingleton  = OpFetch | OpCreate | OpUpdate
)

// FieldType selects the form control for a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldRichText FieldType = "richtext"
	FieldEmail    FieldType = "email"
	FieldURL      FieldType = "url"
	FieldDate     FieldType = "date"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
)

// Field is one editable scalar. Name is the backend JSON key.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Options  []string
}

// Definition configures one domain.
type Definition struct {
	Name    string // route segment, e.g. "books"
	Title   string
	Path    string // backend path, e.g. "/books"
	Kind    Kind
	Ops     Op
	Fields  []Field
	Columns []string // JSON keys shown in the list table

	// ImageField is the JSON key of the image list; empty means no images.
	ImageField string
	// Multipart sends saves as multipart/form-data.
	Multipart bool
}

// Allows reports whether op is supported.
func (d Definition) Allows(op Op) bool {
	return d.Ops&op == op
}

// CanCreate, CanUpdate and CanDelete are Allows for templates.
func (d Definition) CanCreate() bool { return d.Allows(OpCreate) }
func (d Definition) CanUpdate() bool { return d.Allows(OpUpdate) }
func (d Definition) CanDelete() bool { return d.Allows(OpDelete) }

// IsSingleton reports whether the domain holds one record.
func (d Definition) IsSingleton() bool {
	return d.Kind == KindSingleton
}

// HasImages reports whether records carry an image list.
func (d Definition) HasImages() bool {
	return d.ImageField != ""
}

// Field returns the field named name.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ColumnLabel returns the label of a list column, falling back to its key.
func (d Definition) ColumnLabel(key string) string {
	if f, ok := d.Field(key); ok {
		return f.Label
	}
	return key
}
