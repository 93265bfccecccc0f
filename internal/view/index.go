// Package view computes derived read models over the entity stores:
// keyword-filtered tab sets, window/domain/tag groupings, duplicate and
// stale detection, and display ordering. Views never mutate store state and
// recompute lazily, keyed on the store version counters.
package view

import (
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/normalize"
)

// Document kinds in the unified filter index.
const (
	kindActive = "active"
	kindSaved  = "saved"
)

// filterDocument is the indexed shape of a tab, either active or saved.
// Titles and notes get full-text analysis; URLs keep a simple analyzer so
// path segments stay searchable without stemming.
type filterDocument struct {
	ID     string
	Kind   string
	Title  string
	URL    string
	Domain string
	Note   string
	TagIDs []string
}

func (d *filterDocument) toMap() map[string]any {
	m := map[string]any{
		"kind":   d.Kind,
		"title":  d.Title,
		"url":    d.URL,
		"domain": d.Domain,
	}
	if d.Note != "" {
		m["note"] = d.Note
	}
	if len(d.TagIDs) > 0 {
		m["tag_ids"] = d.TagIDs
	}
	return m
}

func activeDocument(t domain.ActiveTab) *filterDocument {
	return &filterDocument{
		ID:     kindActive + ":" + strconv.Itoa(t.ID),
		Kind:   kindActive,
		Title:  t.Title,
		URL:    t.URL,
		Domain: normalize.Domain(t.URL),
	}
}

func savedDocument(t domain.SavedTab) *filterDocument {
	tagIDs := make([]string, len(t.TagIDs))
	for i, id := range t.TagIDs {
		tagIDs[i] = strconv.Itoa(id)
	}
	return &filterDocument{
		ID:     kindSaved + ":" + t.ID,
		Kind:   kindSaved,
		Title:  t.Title,
		URL:    t.URL,
		Domain: normalize.Domain(t.URL),
		Note:   t.Note,
		TagIDs: tagIDs,
	}
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	docMapping.AddFieldMappingsAt("title", titleField)

	urlField := bleve.NewTextFieldMapping()
	urlField.Analyzer = simple.Name
	docMapping.AddFieldMappingsAt("url", urlField)

	noteField := bleve.NewTextFieldMapping()
	noteField.Analyzer = en.AnalyzerName
	docMapping.AddFieldMappingsAt("note", noteField)

	domainField := bleve.NewTextFieldMapping()
	domainField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("domain", domainField)

	kindField := bleve.NewTextFieldMapping()
	kindField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("kind", kindField)

	tagIDsField := bleve.NewTextFieldMapping()
	tagIDsField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("tag_ids", tagIDsField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// rebuildIndex replaces the in-memory filter index from current store
// state. The index is small (hundreds of tabs, not millions), so a full
// rebuild on version change beats incremental bookkeeping.
func (v *Views) rebuildIndex(active []domain.ActiveTab, saved []domain.SavedTab) error {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create filter index")
	}

	batch := index.NewBatch()
	for _, t := range active {
		doc := activeDocument(t)
		if err := batch.Index(doc.ID, doc.toMap()); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "index active tab")
		}
	}
	for _, t := range saved {
		doc := savedDocument(t)
		if err := batch.Index(doc.ID, doc.toMap()); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "index saved tab")
		}
	}
	if err := index.Batch(batch); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "commit filter index batch")
	}

	if v.index != nil {
		_ = v.index.Close()
	}
	v.index = index
	return nil
}
