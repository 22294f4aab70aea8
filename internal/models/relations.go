package models

import "github.com/samber/lo"

// Relation is a one-to-many link: every Child row carries the id of its Parent
// in the ForeignKey attribute. Removing the parent removes its children.
type Relation struct {
	Parent     string
	Child      string
	ForeignKey string
}

var (
	StateCities  = Relation{Parent: ClassState, Child: ClassCity, ForeignKey: "state_id"}
	CityPlaces   = Relation{Parent: ClassCity, Child: ClassPlace, ForeignKey: "city_id"}
	UserPlaces   = Relation{Parent: ClassUser, Child: ClassPlace, ForeignKey: "user_id"}
	PlaceReviews = Relation{Parent: ClassPlace, Child: ClassReview, ForeignKey: "place_id"}
	UserReviews  = Relation{Parent: ClassUser, Child: ClassReview, ForeignKey: "user_id"}
)

func Relations() []Relation {
	return []Relation{StateCities, CityPlaces, UserPlaces, PlaceReviews, UserReviews}
}

// RelationsOf returns the relations in which class is the parent.
func RelationsOf(class string) []Relation {
	return lo.Filter(Relations(), func(r Relation, _ int) bool { return r.Parent == class })
}

// RelationsTo returns the relations in which class is the child.
func RelationsTo(class string) []Relation {
	return lo.Filter(Relations(), func(r Relation, _ int) bool { return r.Child == class })
}

// ForeignKey returns the parent id stored by e in column, or "" when unset.
func ForeignKey(e Entity, column string) string {
	id, _ := e.Attributes()[column].(string)
	return id
}
