package store

import (
	"encoding/binary"

	"github.com/entigraph/entigest/internal/model"
)

// Key prefixes. Primary records live under a per-kind prefix keyed by entity
// id; secondary index entries are composite keys whose lexicographic order
// matches the lookup order.
const (
	itemsPrefix    = "it:"
	objectsPrefix  = "ob:"
	literalsPrefix = "li:"
	typesPrefix    = "ty:"
	errorsPrefix   = "er:"
	summaryPrefix  = "sum:"

	indexCategoryPrefix   = "ix:cat:"
	indexPopularityPrefix = "ix:pop:"
	indexSequencePrefix   = "ix:seq:"
	indexEntityCategory   = "ix:entcat:"

	manifestKey = "ix:manifest"
	errorSeqKey = "seq:errors"
)

// indexManifest names the secondary indexes this store maintains; written
// once by EnsureIndexes so readers can verify the index set they rely on.
var indexManifest = map[string][]string{
	"items":    {"entity", "category", "popularity", "id_entity", "entity+category"},
	"objects":  {"entity", "id_entity"},
	"literals": {"entity", "id_entity"},
	"types":    {"entity", "id_entity"},
}

func kindPrefix(kind Kind) []byte {
	switch kind {
	case KindItems:
		return []byte(itemsPrefix)
	case KindObjects:
		return []byte(objectsPrefix)
	case KindLiterals:
		return []byte(literalsPrefix)
	case KindTypes:
		return []byte(typesPrefix)
	}
	return []byte("xx:")
}

func primaryKey(kind Kind, entity string) []byte {
	return append(kindPrefix(kind), entity...)
}

func indexManifestKey() []byte {
	return []byte(manifestKey)
}

// categoryKey indexes items by category for filtered lookups.
func categoryKey(category model.Category, entity string) []byte {
	return []byte(indexCategoryPrefix + string(category) + ":" + entity)
}

// popularityKey indexes items by popularity. Big-endian so byte order equals
// numeric order under badger's lexicographic iteration.
func popularityKey(popularity int, entity string) []byte {
	prefix := []byte(indexPopularityPrefix)
	key := make([]byte, len(prefix)+4+1+len(entity))
	n := copy(key, prefix)
	binary.BigEndian.PutUint32(key[n:], uint32(popularity))
	n += 4
	key[n] = ':'
	n++
	copy(key[n:], entity)
	return key
}

// sequenceKey indexes items by their stream position.
func sequenceKey(index uint64) []byte {
	prefix := []byte(indexSequencePrefix)
	key := make([]byte, len(prefix)+8)
	n := copy(key, prefix)
	binary.BigEndian.PutUint64(key[n:], index)
	return key
}

// entityCategoryKey is the compound uniqueness guard on entity+category.
func entityCategoryKey(entity string, category model.Category) []byte {
	return []byte(indexEntityCategory + entity + ":" + string(category))
}

func errorKey(seq uint64) []byte {
	prefix := []byte(errorsPrefix)
	key := make([]byte, len(prefix)+8)
	n := copy(key, prefix)
	binary.BigEndian.PutUint64(key[n:], seq)
	return key
}

// summaryKey orders predicate summaries by descending count: the count is
// stored inverted so the busiest predicates iterate first.
func summaryKey(source string, count uint64, predicate string) []byte {
	prefix := []byte(summaryPrefix + source + ":")
	key := make([]byte, len(prefix)+8+1+len(predicate))
	n := copy(key, prefix)
	binary.BigEndian.PutUint64(key[n:], ^count)
	n += 8
	key[n] = ':'
	n++
	copy(key[n:], predicate)
	return key
}
