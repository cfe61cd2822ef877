package model

// Category classifies an entity by its role in the graph.
type Category string

const (
	CategoryEntity    Category = "entity"
	CategoryType      Category = "type"
	CategoryPredicate Category = "predicate"
)

// NERTag is a coarse named-entity class. An entity carries zero or more
// distinct tags, one per instance-of bucket it falls into.
type NERTag string

const (
	NERPerson       NERTag = "PERS"
	NERLocation     NERTag = "LOC"
	NEROrganization NERTag = "ORG"
	NEROther        NERTag = "OTHERS"
)

// LiteralKind buckets literal claim values by lexical datatype.
type LiteralKind string

const (
	LiteralString          LiteralKind = "STRING"
	LiteralNumber          LiteralKind = "NUMBER"
	LiteralDatetime        LiteralKind = "DATETIME"
	LiteralGeoshape        LiteralKind = "GEOSHAPE"
	LiteralMath            LiteralKind = "MATH"
	LiteralMusicalNotation LiteralKind = "MUSICAL_NOTATION"
	LiteralTabularData     LiteralKind = "TABULAR_DATA"
)

// LiteralKinds lists every bucket; literal records carry all of them, empty
// or not, so downstream lookups never miss a key.
var LiteralKinds = []LiteralKind{
	LiteralString,
	LiteralNumber,
	LiteralDatetime,
	LiteralGeoshape,
	LiteralMath,
	LiteralMusicalNotation,
	LiteralTabularData,
}

// ItemRecord is the per-entity metadata document. Index is a stream-position
// counter, not a stable external key: re-running over a reordered dump
// assigns different values. Entity plus Category is the uniqueness guard.
type ItemRecord struct {
	Index         uint64              `json:"id_entity"`
	Entity        string              `json:"entity"`
	Description   string              `json:"description"`
	Labels        map[string]string   `json:"labels"`
	Aliases       map[string][]string `json:"aliases"`
	Types         map[string][]string `json:"types"`
	Popularity    int                 `json:"popularity"`
	Category      Category            `json:"kind"`
	NERTypes      []NERTag            `json:"NERtype"`
	URLs          map[string]string   `json:"URLs,omitempty"`
	ExtendedTypes []string            `json:"extended_types"`
	ExplicitTypes []string            `json:"explicit_types"`
}

// ObjectRecord maps related entity ids to the predicates linking them.
type ObjectRecord struct {
	Index   uint64              `json:"id_entity"`
	Entity  string              `json:"entity"`
	Objects map[string][]string `json:"objects"`
}

// LiteralRecord maps literal kind -> predicate -> observed values.
type LiteralRecord struct {
	Index    uint64                            `json:"id_entity"`
	Entity   string                            `json:"entity"`
	Literals map[LiteralKind]map[string][]string `json:"literals"`
}

// TypeRecord duplicates the explicit instance-of set for independent lookup.
type TypeRecord struct {
	Index  uint64              `json:"id_entity"`
	Entity string              `json:"entity"`
	Types  map[string][]string `json:"types"`
}

// SummaryRecord is one row of the post-hoc predicate aggregation: how many
// claims use a predicate, decorated with the predicate's English label.
// LiteralType is empty for object-claim summaries.
type SummaryRecord struct {
	LiteralType LiteralKind `json:"literalType,omitempty"`
	Predicate   string      `json:"predicate"`
	Label       string      `json:"label"`
	Count       uint64      `json:"count"`
}

// ErrorRecord captures one per-entity processing failure. Append-only; the
// pipeline never reads these back.
type ErrorRecord struct {
	Entity  string `json:"entity"`
	Message string `json:"error"`
	Context string `json:"context"`
}

// Derived bundles every record produced from one raw entity. All four share
// the same entity id and sequence index.
type Derived struct {
	Item     ItemRecord
	Objects  ObjectRecord
	Literals LiteralRecord
	Types    TypeRecord
}
