package models

const (
	ClassUser    = "User"
	ClassState   = "State"
	ClassCity    = "City"
	ClassAmenity = "Amenity"
	ClassPlace   = "Place"
	ClassReview  = "Review"
)

// Classes lists every entity class, parents before the classes referencing them.
func Classes() []string {
	return []string{ClassUser, ClassState, ClassCity, ClassAmenity, ClassPlace, ClassReview}
}

type User struct {
	BaseModel

	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (*User) Class() string { return ClassUser }

func (u *User) Attributes() map[string]any {
	return map[string]any{
		"email":      u.Email,
		"password":   u.Password,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	}
}

type State struct {
	BaseModel

	Name string `json:"name"`
}

// NewState builds a fresh State.
func NewState(name string) *State {
	return &State{BaseModel: NewBase(), Name: name}
}

func (*State) Class() string { return ClassState }

func (s *State) Attributes() map[string]any {
	return map[string]any{
		"name": s.Name,
	}
}

type City struct {
	BaseModel

	StateID string `json:"state_id"`
	Name    string `json:"name"`
}

// NewCity builds a fresh City owned by the given state.
func NewCity(stateID, name string) *City {
	return &City{BaseModel: NewBase(), StateID: stateID, Name: name}
}

func (*City) Class() string { return ClassCity }

func (c *City) Attributes() map[string]any {
	return map[string]any{
		"state_id": c.StateID,
		"name":     c.Name,
	}
}

type Amenity struct {
	BaseModel

	Name string `json:"name"`
}

func (*Amenity) Class() string { return ClassAmenity }

func (a *Amenity) Attributes() map[string]any {
	return map[string]any{
		"name": a.Name,
	}
}

type Place struct {
	BaseModel

	CityID          string   `json:"city_id"`
	UserID          string   `json:"user_id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	NumberRooms     int      `json:"number_rooms"`
	NumberBathrooms int      `json:"number_bathrooms"`
	MaxGuest        int      `json:"max_guest"`
	PriceByNight    int      `json:"price_by_night"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	AmenityIDs      []string `json:"amenity_ids"`
}

func (*Place) Class() string { return ClassPlace }

func (p *Place) Attributes() map[string]any {
	amenities := p.AmenityIDs
	if amenities == nil {
		amenities = []string{}
	}

	return map[string]any{
		"city_id":          p.CityID,
		"user_id":          p.UserID,
		"name":             p.Name,
		"description":      p.Description,
		"number_rooms":     p.NumberRooms,
		"number_bathrooms": p.NumberBathrooms,
		"max_guest":        p.MaxGuest,
		"price_by_night":   p.PriceByNight,
		"latitude":         p.Latitude,
		"longitude":        p.Longitude,
		"amenity_ids":      amenities,
	}
}

type Review struct {
	BaseModel

	PlaceID string `json:"place_id"`
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
}

func (*Review) Class() string { return ClassReview }

func (r *Review) Attributes() map[string]any {
	return map[string]any{
		"place_id": r.PlaceID,
		"user_id":  r.UserID,
		"text":     r.Text,
	}
}

var (
	_ Entity = (*User)(nil)
	_ Entity = (*State)(nil)
	_ Entity = (*City)(nil)
	_ Entity = (*Amenity)(nil)
	_ Entity = (*Place)(nil)
	_ Entity = (*Review)(nil)
)
