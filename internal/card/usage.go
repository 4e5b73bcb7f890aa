// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines TemplateUsage, the summary of which data and fields a
// template reads.
//
// Why "self" flags?
//
// Some constructs consume the whole data object or the whole field set
// opaquely, for example iterating over every field. Downstream consumers then
// have to fall back to fetching everything, so the summary records that fact
// explicitly instead of guessing a list.
package card

// FieldUsage records one rendered field path. An empty Format means the
// nested default of the template's own format.
type FieldUsage struct {
	Path   string
	Format Format
}

// TemplateUsage summarises the data paths and field paths a template reads.
type TemplateUsage struct {
	ModelSelf  bool
	Model      []string
	FieldsSelf bool
	Fields     []FieldUsage
}

// AddModel records a data path, ignoring duplicates.
func (u *TemplateUsage) AddModel(path string) {
	for _, p := range u.Model {
		if p == path {
			return
		}
	}
	u.Model = append(u.Model, path)
}

// AddField records a rendered field path, ignoring duplicates.
func (u *TemplateUsage) AddField(path string, format Format) {
	for _, f := range u.Fields {
		if f.Path == path && f.Format == format {
			return
		}
	}
	u.Fields = append(u.Fields, FieldUsage{Path: path, Format: format})
}
