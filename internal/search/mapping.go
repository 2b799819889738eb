package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for listing documents.
//
// Name and description get English stemming. Owner uses the simple
// analyzer since handles and org names should not be stemmed. Type,
// language and tags are keywords for exact filters and facets.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Searchable but not stored
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	descFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	ownerFieldMapping := bleve.NewTextFieldMapping()
	ownerFieldMapping.Analyzer = simple.Name
	ownerFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("owner", ownerFieldMapping)

	// --- Keyword fields ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	typeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	languageFieldMapping := bleve.NewTextFieldMapping()
	languageFieldMapping.Analyzer = keyword.Name
	languageFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("language", languageFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = keyword.Name
	tagsFieldMapping.Store = true
	tagsFieldMapping.IncludeTermVectors = true // For faceting
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	// --- Numeric fields ---

	upvotesFieldMapping := bleve.NewNumericFieldMapping()
	upvotesFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("upvotes", upvotesFieldMapping)

	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
