package sparql

import (
	"fmt"
	"strings"
)

const prologue = `PREFIX wikibase: <http://wikiba.se/ontology#>
PREFIX wd: <http://www.wikidata.org/entity/>
PREFIX wdt: <http://www.wikidata.org/prop/direct/>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
`

// SubtreeQuery asks for every identifier reachable from the roots by zero or
// more hops along the given property. With reverse set, edges are followed
// against their direction — that is the subclass-closure case, where the
// result is everything that transitively subclasses the roots.
func SubtreeQuery(roots []string, property string, reverse bool) string {
	rootList := "wd:" + strings.Join(roots, " wd:")
	if reverse {
		return fmt.Sprintf(`%sSELECT ?id WHERE {
  VALUES ?root { %s }
  ?id (wdt:%s)* ?root .
}`, prologue, rootList, property)
	}
	return fmt.Sprintf(`%sSELECT ?id WHERE {
  VALUES ?root { %s }
  ?root (wdt:%s)* ?id .
}`, prologue, rootList, property)
}

// SuperclassQuery asks for the full transitive superclass chain of one
// entity, labels included.
func SuperclassQuery(id string) string {
	return fmt.Sprintf(`%sSELECT ?superclass ?superclassLabel WHERE {
  wd:%s (wdt:P279)* ?superclass .
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}`, prologue, id)
}
