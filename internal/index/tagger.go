package index

import (
	"fmt"

	"github.com/abramin/abilens/internal/store"
)

// Tagger applies tags to functions and types after they are persisted.
type Tagger struct {
	store *store.Store
}

// TagResult holds the results of the tagging operation.
type TagResult struct {
	FunctionTags int // Mutability, entry point and interface tags
	TypeTags     int // Unreferenced type tags
	TotalTags    int
}

// NewTagger creates a new tagger.
func NewTagger(st *store.Store) *Tagger {
	return &Tagger{store: st}
}

// Tag applies all tags and returns the result.
func (t *Tagger) Tag() (*TagResult, error) {
	result := &TagResult{}

	// Get all functions and unreferenced types
	functions, err := t.store.GetAllFunctions()
	if err != nil {
		return nil, fmt.Errorf("getting functions: %w", err)
	}
	unreferenced, err := t.store.GetUnreferencedTypes()
	if err != nil {
		return nil, fmt.Errorf("getting unreferenced types: %w", err)
	}

	batch, err := t.store.BeginBatch()
	if err != nil {
		return nil, fmt.Errorf("starting batch: %w", err)
	}
	defer batch.Rollback()

	// Tag functions
	for _, fn := range functions {
		for _, tag := range functionTags(fn) {
			if err := batch.InsertTag(tag); err != nil {
				return nil, fmt.Errorf("inserting function tag: %w", err)
			}
			result.FunctionTags++
		}
	}

	// Tag unreferenced types
	for _, typ := range unreferenced {
		tag := &store.Tag{
			Subject:   store.SubjectType,
			SubjectID: int64(typ.ID),
			Tag:       "unreferenced",
			Reason:    fmt.Sprintf("No function, event or type uses %s %s", typ.Kind, typ.Name),
		}
		if err := batch.InsertTag(tag); err != nil {
			return nil, fmt.Errorf("inserting type tag: %w", err)
		}
		result.TypeTags++
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}

	result.TotalTags = result.FunctionTags + result.TypeTags
	return result, nil
}

// functionTags returns the tags that describe how a function is exposed.
func functionTags(fn store.Function) []*store.Tag {
	var tags []*store.Tag
	add := func(tag, reason string) {
		tags = append(tags, &store.Tag{
			Subject:   store.SubjectFunction,
			SubjectID: int64(fn.ID),
			Tag:       tag,
			Reason:    reason,
		})
	}

	switch fn.Kind {
	case store.FunctionKindConstructor:
		add("entry:constructor", "Contract constructor")
	case store.FunctionKindL1Handler:
		add("entry:l1_handler", "Handles messages from L1")
	}
	if fn.StateMutability != "" {
		add("mutability:"+fn.StateMutability, fmt.Sprintf("Declared state_mutability %q", fn.StateMutability))
	}
	if fn.InterfaceName != "" {
		add("interface:"+fn.InterfaceName, "Item of interface "+fn.InterfaceName)
	}
	return tags
}
