// Package search owns the lookup search-index boundary: the document shape,
// the index mapping and its idempotent creation. Query serving lives with
// the lookup API, not here.
package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/entigraph/entigest/internal/model"
)

// Document is one searchable surface form of an entity. An entity yields one
// document per distinct label or alias.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Types       string `json:"types"`
	Length      int    `json:"length"`
	NTokens     int    `json:"ntoken"`
	Popularity  int    `json:"popularity"`
}

// Mapping renders the index settings and mapping: the name field goes
// through a whitespace+lowercase analyzer, popularity is a rank_feature so
// well-linked entities float up at query time.
func Mapping(shards, replicas int) []byte {
	mapping := map[string]any{
		"settings": map[string]any{
			"index": map[string]any{
				"number_of_shards":   shards,
				"number_of_replicas": replicas,
			},
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"surface_form": map[string]any{
						"type":      "custom",
						"tokenizer": "whitespace",
						"filter":    []string{"lowercase"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":          map[string]any{"type": "text"},
				"name":        map[string]any{"type": "text", "analyzer": "surface_form"},
				"description": map[string]any{"type": "text"},
				"types":       map[string]any{"type": "keyword"},
				"length":      map[string]any{"type": "long"},
				"ntoken":      map[string]any{"type": "long"},
				"popularity": map[string]any{
					"type":                  "rank_feature",
					"positive_score_impact": true,
				},
			},
		},
	}
	out, err := json.Marshal(mapping)
	if err != nil {
		panic(fmt.Sprintf("render index mapping: %v", err))
	}
	return out
}

// Documents expands an item record into its searchable surface forms,
// deduplicated across labels and aliases.
func Documents(item *model.ItemRecord) []Document {
	seen := make(map[string]bool)
	names := []string{}
	for _, label := range item.Labels {
		if label != "" && !seen[label] {
			seen[label] = true
			names = append(names, label)
		}
	}
	for _, aliases := range item.Aliases {
		for _, alias := range aliases {
			if alias != "" && !seen[alias] {
				seen[alias] = true
				names = append(names, alias)
			}
		}
	}

	types := strings.Join(item.Types["P31"], " ")
	docs := make([]Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, Document{
			ID:          item.Entity,
			Name:        name,
			Description: item.Description,
			Types:       types,
			Length:      len(name),
			NTokens:     len(strings.Fields(name)),
			Popularity:  item.Popularity,
		})
	}
	return docs
}
