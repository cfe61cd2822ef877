package taxonomy

// Canonical identifiers the classifier keys on.
const (
	// Human: the one instance-of value that maps straight to PERS.
	Human = "Q5"

	// InstanceOf and Occupation feed the declared-type set; SubclassOf marks
	// an entity as a type and is the edge every closure follows.
	InstanceOf = "P31"
	Occupation = "P106"
	SubclassOf = "P279"
)

// Root and exclusion classes for the two taxonomy sets. Organizations are
// everything under Q43229 minus the political/geographic and social branches
// that overlap with locations and families; locations are everything under
// geographic location minus branches that are really institutions or
// abstractions.
var (
	organizationRoots = []string{"Q43229"}
	organizationExcludes = []string{
		"Q6256",     // country
		"Q515",      // city
		"Q5119",     // capital
		"Q15916867", // administrative territorial entity
		"Q8436",     // family
		"Q623109",   // sports league
		"Q17350442", // venue
	}

	locationRoots = []string{"Q2221906"}
	locationExcludes = []string{
		"Q2095",    // food
		"Q2385804", // educational institution
		"Q327333",  // government agency
		"Q484652",  // international organization
		"Q12143",   // time zone
	}
)

// Set is a resolved, exclusion-adjusted collection of class identifiers.
type Set map[string]struct{}

// Contains reports membership.
func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Taxonomy holds the classification sets. Built once at startup and passed
// into the classifier by value reference; nothing mutates it afterward.
type Taxonomy struct {
	Organizations Set
	Locations     Set
}
