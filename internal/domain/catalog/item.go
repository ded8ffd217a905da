package catalog

import (
	"fmt"
	"strings"
)

// ItemKind distinguishes the two catalog entry types.
type ItemKind string

const (
	KindSet     ItemKind = "set"
	KindMinifig ItemKind = "minifig"
)

// ItemRef identifies a catalog entry by (kind, primary id). For sets the id
// is the catalog number ("75192"); for minifigs it is the collector code
// ("sw0010").
type ItemRef struct {
	Kind ItemKind
	ID   string
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// ParseItemRef parses the "kind:id" form produced by ItemRef.String.
func ParseItemRef(s string) (ItemRef, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return ItemRef{}, fmt.Errorf("invalid item ref %q", s)
	}
	k := ItemKind(kind)
	if k != KindSet && k != KindMinifig {
		return ItemRef{}, fmt.Errorf("invalid item kind %q", kind)
	}
	return ItemRef{Kind: k, ID: id}, nil
}

// Item is a catalog entry. Secondary id spaces (BrickOwl opaque id,
// Rebrickable encyclopedia id) live on the same row; any lookup by any id
// must return the same row.
type Item struct {
	Ref            ItemRef
	Name           string
	BrickOwlID     string // opaque marketplace-B numeric id
	EncyclopediaID string // Rebrickable id, "fig-NNNNNN" for minifigs
	ImageURL       string
	PieceCount     int
}
