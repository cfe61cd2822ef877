// Package lookup validates request parameters for the entity-lookup API
// that serves the ingested store. Only the validation boundary lives here;
// the API surface itself is a separate deployment.
package lookup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/entigraph/entigest/internal/model"
)

// DefaultGraph is the knowledge graph assumed when the request names none.
const DefaultGraph = "wikidata"

// DefaultLimit is the result cap applied when the request names none.
const DefaultLimit = 1000

// ParamError reports an invalid request parameter together with the HTTP
// status the API should answer with.
type ParamError struct {
	Status  int
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func paramError(status int, message string) *ParamError {
	return &ParamError{Status: status, Message: message}
}

// Validator checks raw request parameters against the deployment's access
// token and the set of graphs the store actually holds.
type Validator struct {
	accessToken     string
	supportedGraphs map[string]bool
}

// NewValidator creates a validator for the given token and graph set.
func NewValidator(accessToken string, supportedGraphs []string) *Validator {
	graphs := make(map[string]bool, len(supportedGraphs))
	for _, g := range supportedGraphs {
		graphs[g] = true
	}
	return &Validator{accessToken: accessToken, supportedGraphs: graphs}
}

// Token rejects any token that is not the configured one.
func (v *Validator) Token(token string) error {
	if token != v.accessToken {
		return paramError(403, "invalid access token")
	}
	return nil
}

// Graph resolves the knowledge-graph selector, defaulting when empty.
func (v *Validator) Graph(kg string) (string, error) {
	if kg == "" {
		return DefaultGraph, nil
	}
	if !v.supportedGraphs[kg] {
		return "", paramError(400, "unsupported knowledge graph")
	}
	return kg, nil
}

// Limit parses the result cap, defaulting when empty.
func (v *Validator) Limit(limit string) (int, error) {
	if limit == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(limit)
	if err != nil {
		return 0, paramError(400, "limit parameter cannot be converted to int")
	}
	return n, nil
}

// K checks that the neighborhood size is an integer. The zero value keeps
// the caller's own default.
func (v *Validator) K(k string) error {
	if _, err := strconv.Atoi(k); err != nil {
		return paramError(400, "k parameter cannot be converted to int")
	}
	return nil
}

// Bool parses a boolean flag; absent means false.
func (v *Validator) Bool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "":
		return false, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, paramError(400, "bool parameter cannot be converted")
	}
}

// NERType checks a named-entity tag filter; absent means no filter.
func (v *Validator) NERType(tag string) (model.NERTag, error) {
	if tag == "" {
		return "", nil
	}
	switch model.NERTag(tag) {
	case model.NERLocation, model.NEROrganization, model.NERPerson, model.NEROther:
		return model.NERTag(tag), nil
	default:
		return "", paramError(400, "NERtype parameter is not valid")
	}
}
