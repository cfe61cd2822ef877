package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/entigraph/entigest/internal/model"
	"github.com/entigraph/entigest/internal/taxonomy"
)

// ErrMalformedLine marks input that failed to parse as JSON. Dump streams
// carry structural noise (array brackets, truncated tails), so these are
// dropped silently rather than logged.
var ErrMalformedLine = errors.New("classify: malformed line")

// skippedDatatypes carry lexical values the pipeline has no bucket for.
var skippedDatatypes = map[string]struct{}{
	"wikibase-lexeme": {},
	"wikibase-form":   {},
	"wikibase-sense":  {},
}

// literalKinds maps claim datatypes to literal buckets; anything absent
// falls back to STRING.
var literalKinds = map[string]model.LiteralKind{
	"external-id":      model.LiteralString,
	"string":           model.LiteralString,
	"monolingualtext":  model.LiteralString,
	"commonsMedia":     model.LiteralString,
	"url":              model.LiteralString,
	"globe-coordinate": model.LiteralString,
	"quantity":         model.LiteralNumber,
	"time":             model.LiteralDatetime,
	"geo-shape":        model.LiteralGeoshape,
	"math":             model.LiteralMath,
	"musical-notation": model.LiteralMusicalNotation,
	"tabular-data":     model.LiteralTabularData,
}

// TypeResolver supplies cached transitive superclass chains.
type TypeResolver interface {
	Superclasses(ctx context.Context, typeID string) []string
}

// Classifier turns raw dump lines into derived records. It holds the run's
// immutable taxonomy and the shared superclass cache; it carries no
// per-entity state and is safe for concurrent use.
type Classifier struct {
	taxonomy *taxonomy.Taxonomy
	types    TypeResolver
}

// New creates a classifier over the given taxonomy and type resolver.
func New(tax *taxonomy.Taxonomy, types TypeResolver) *Classifier {
	return &Classifier{taxonomy: tax, types: types}
}

// Parse decodes one raw line into an entity. Lines that are not JSON
// objects yield ErrMalformedLine.
func (c *Classifier) Parse(line []byte) (*model.RawEntity, error) {
	var raw model.RawEntity
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, ErrMalformedLine
	}
	if raw.ID == "" {
		return nil, ErrMalformedLine
	}
	return &raw, nil
}

// Classify derives the four output records for one entity. index is the
// stream sequence counter assigned by the caller. Failures mid-derivation
// abort only this entity.
func (c *Classifier) Classify(ctx context.Context, raw *model.RawEntity, index uint64) (*model.Derived, error) {
	objects := make(map[string][]string)
	literals := make(map[model.LiteralKind]map[string][]string, len(model.LiteralKinds))
	for _, kind := range model.LiteralKinds {
		literals[kind] = make(map[string][]string)
	}
	declared := []string{}

	for predicate, claims := range raw.Claims {
		for _, claim := range claims {
			snak := claim.MainSnak
			if snak.DataValue == nil {
				continue
			}
			if _, skip := skippedDatatypes[snak.Datatype]; skip {
				continue
			}

			if snak.Datatype == "wikibase-item" || snak.Datatype == "wikibase-property" {
				var value model.EntityValue
				if err := json.Unmarshal(snak.DataValue.Value, &value); err != nil {
					return nil, fmt.Errorf("entity %s: decode %s value: %w", raw.ID, predicate, err)
				}
				if predicate == taxonomy.InstanceOf || predicate == taxonomy.Occupation {
					declared = append(declared, value.ID)
				}
				objects[value.ID] = append(objects[value.ID], predicate)
				continue
			}

			literal, err := literalValue(snak)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %s: %w", raw.ID, predicate, err)
			}
			kind, ok := literalKinds[snak.Datatype]
			if !ok {
				kind = model.LiteralString
			}
			literals[kind][predicate] = append(literals[kind][predicate], literal)
		}
	}

	types := map[string][]string{taxonomy.InstanceOf: declared}

	// The superclass closure covers instance-of targets only; occupation
	// targets widen the type record but not the closure.
	explicit := explicitTypes(raw)

	item := model.ItemRecord{
		Index:         index,
		Entity:        raw.ID,
		Description:   raw.Descriptions["en"].Value,
		Labels:        flattenLabels(raw.Labels),
		Aliases:       flattenAliases(raw.Aliases),
		Types:         types,
		Popularity:    popularity(raw),
		Category:      categorize(raw),
		NERTypes:      c.nerTags(raw),
		URLs:          entityURLs(raw),
		ExtendedTypes: c.extendedTypes(ctx, explicit),
		ExplicitTypes: explicit,
	}

	return &model.Derived{
		Item: item,
		Objects: model.ObjectRecord{
			Index:   index,
			Entity:  raw.ID,
			Objects: objects,
		},
		Literals: model.LiteralRecord{
			Index:    index,
			Entity:   raw.ID,
			Literals: literals,
		},
		Types: model.TypeRecord{
			Index:  index,
			Entity: raw.ID,
			// Own copy: the item and type records must not share the map.
			Types: map[string][]string{taxonomy.InstanceOf: append([]string(nil), declared...)},
		},
	}, nil
}

// categorize picks the entity's role: identifier prefix wins, then the
// presence of a subclass-of claim, then the default.
func categorize(raw *model.RawEntity) model.Category {
	if strings.HasPrefix(raw.ID, "P") {
		return model.CategoryPredicate
	}
	if _, ok := raw.Claims[taxonomy.SubclassOf]; ok {
		return model.CategoryType
	}
	return model.CategoryEntity
}

// nerTags accumulates one tag per instance-of bucket the entity falls into.
// Tags are deduplicated but never exclusive: an entity whose instance-of
// claims span buckets carries every matching tag.
func (c *Classifier) nerTags(raw *model.RawEntity) []model.NERTag {
	if raw.Type != "item" {
		return nil
	}

	var tags []model.NERTag
	seen := make(map[model.NERTag]struct{}, 4)
	add := func(tag model.NERTag) {
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, id := range instanceOfValues(raw) {
		switch {
		case id == taxonomy.Human:
			add(model.NERPerson)
		case c.taxonomy.Locations.Contains(id):
			add(model.NERLocation)
		case c.taxonomy.Organizations.Contains(id):
			add(model.NEROrganization)
		default:
			add(model.NEROther)
		}
	}
	return tags
}

// extendedTypes unions the cached superclass chain of every declared type.
// An empty result means the entity declared no types or every resolution
// failed; both read the same downstream.
func (c *Classifier) extendedTypes(ctx context.Context, declared []string) []string {
	union := make(map[string]struct{})
	for _, typeID := range declared {
		for _, super := range c.types.Superclasses(ctx, typeID) {
			union[super] = struct{}{}
		}
	}
	extended := make([]string, 0, len(union))
	for id := range union {
		extended = append(extended, id)
	}
	sort.Strings(extended)
	return extended
}

// instanceOfValues lists the targets of realized instance-of claims.
func instanceOfValues(raw *model.RawEntity) []string {
	claims := raw.Claims[taxonomy.InstanceOf]
	ids := make([]string, 0, len(claims))
	for _, claim := range claims {
		snak := claim.MainSnak
		if snak.DataValue == nil {
			continue
		}
		var value model.EntityValue
		if err := json.Unmarshal(snak.DataValue.Value, &value); err != nil {
			continue
		}
		if value.ID != "" {
			ids = append(ids, value.ID)
		}
	}
	return ids
}

func explicitTypes(raw *model.RawEntity) []string {
	return instanceOfValues(raw)
}

// literalValue extracts the scalar form of a non-entity snak.
func literalValue(snak model.Snak) (string, error) {
	switch snak.Datatype {
	case "globe-coordinate":
		var coord model.CoordinateValue
		if err := json.Unmarshal(snak.DataValue.Value, &coord); err != nil {
			return "", fmt.Errorf("decode coordinate: %w", err)
		}
		lat := strconv.FormatFloat(coord.Latitude, 'f', -1, 64)
		lon := strconv.FormatFloat(coord.Longitude, 'f', -1, 64)
		return lat + "," + lon, nil
	case "quantity":
		var quantity model.QuantityValue
		if err := json.Unmarshal(snak.DataValue.Value, &quantity); err != nil {
			return "", fmt.Errorf("decode quantity: %w", err)
		}
		return quantity.Amount, nil
	case "time":
		var t model.TimeValue
		if err := json.Unmarshal(snak.DataValue.Value, &t); err != nil {
			return "", fmt.Errorf("decode time: %w", err)
		}
		return t.Time, nil
	case "monolingualtext":
		var mono model.MonolingualValue
		if err := json.Unmarshal(snak.DataValue.Value, &mono); err != nil {
			return "", fmt.Errorf("decode monolingual text: %w", err)
		}
		return mono.Text, nil
	default:
		var s string
		if err := json.Unmarshal(snak.DataValue.Value, &s); err != nil {
			return "", fmt.Errorf("decode %s value: %w", snak.Datatype, err)
		}
		return s, nil
	}
}

func flattenLabels(labels map[string]model.Term) map[string]string {
	out := make(map[string]string, len(labels))
	for lang, term := range labels {
		out[lang] = term.Value
	}
	return out
}

// flattenAliases deduplicates alias values per language.
func flattenAliases(aliases map[string][]model.Term) map[string][]string {
	out := make(map[string][]string, len(aliases))
	for lang, terms := range aliases {
		seen := make(map[string]struct{}, len(terms))
		values := make([]string, 0, len(terms))
		for _, term := range terms {
			if _, dup := seen[term.Value]; dup {
				continue
			}
			seen[term.Value] = struct{}{}
			values = append(values, term.Value)
		}
		out[lang] = values
	}
	return out
}

// popularity is the sitelink count, floored at one so ranking features never
// see a zero.
func popularity(raw *model.RawEntity) int {
	if n := len(raw.Sitelinks); n > 0 {
		return n
	}
	return 1
}

// entityURLs derives the well-known resource URLs. Entities without an
// English wiki sitelink only get the graph URL.
func entityURLs(raw *model.RawEntity) map[string]string {
	urls := map[string]string{
		"wikidata": "http://www.wikidata.org/wiki/" + raw.ID,
	}
	if enwiki, ok := raw.Sitelinks["enwiki"]; ok && enwiki.Title != "" {
		slug := strings.ReplaceAll(enwiki.Title, " ", "_")
		urls["wikipedia"] = "http://en.wikipedia.org/wiki/" + slug
		urls["dbpedia"] = "http://dbpedia.org/resource/" + slug
	}
	return urls
}
