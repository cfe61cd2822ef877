package model

import "encoding/json"

// RawEntity is one line of the dump as decoded: a Wikibase entity document.
// Claims are kept as raw snaks; value extraction is datatype-dependent and
// happens during classification.
type RawEntity struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	Labels       map[string]Term    `json:"labels"`
	Descriptions map[string]Term    `json:"descriptions"`
	Aliases      map[string][]Term  `json:"aliases"`
	Claims       map[string][]Claim `json:"claims"`
	Sitelinks    map[string]struct {
		Site  string `json:"site"`
		Title string `json:"title"`
	} `json:"sitelinks"`
}

// Term is a single-language label, description or alias value.
type Term struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// Claim is a predicate-value assertion. Only the main snak matters for
// ingestion; qualifiers and references are ignored.
type Claim struct {
	MainSnak Snak   `json:"mainsnak"`
	Rank     string `json:"rank"`
}

// Snak carries the datatype tag and the (possibly absent) data value.
type Snak struct {
	SnakType  string     `json:"snaktype"`
	Datatype  string     `json:"datatype"`
	DataValue *DataValue `json:"datavalue"`
}

// DataValue is the realized value of a snak. Value stays raw because its
// shape depends on the datatype.
type DataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// EntityValue is the value shape of wikibase-item and wikibase-property
// snaks.
type EntityValue struct {
	EntityType string `json:"entity-type"`
	NumericID  int64  `json:"numeric-id"`
	ID         string `json:"id"`
}

// QuantityValue is the value shape of quantity snaks. Amount keeps its
// signed decimal string form.
type QuantityValue struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// TimeValue is the value shape of time snaks.
type TimeValue struct {
	Time      string `json:"time"`
	Precision int    `json:"precision"`
}

// MonolingualValue is the value shape of monolingualtext snaks.
type MonolingualValue struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// CoordinateValue is the value shape of globe-coordinate snaks.
type CoordinateValue struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
