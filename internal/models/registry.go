package models

import (
	"fmt"
	"slices"
	"sync"
)

// Factory returns a zero-valued entity of one class.
type Factory func() Entity

// Registry maps type tags to entity factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry holding every built-in class.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ClassUser, func() Entity { return new(User) })
	r.Register(ClassState, func() Entity { return new(State) })
	r.Register(ClassCity, func() Entity { return new(City) })
	r.Register(ClassAmenity, func() Entity { return new(Amenity) })
	r.Register(ClassPlace, func() Entity { return new(Place) })
	r.Register(ClassReview, func() Entity { return new(Review) })

	return r
}

// Register adds a factory for class. It panics if the class is already registered.
func (r *Registry) Register(class string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[class]; exists {
		panic(fmt.Sprintf("models: class %q already registered", class))
	}
	r.factories[class] = factory
}

// Lookup returns the factory for class or an *UnknownClassError.
func (r *Registry) Lookup(class string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[class]
	if !ok {
		return nil, &UnknownClassError{Class: class}
	}

	return factory, nil
}

// Has reports whether class is registered.
func (r *Registry) Has(class string) bool {
	_, err := r.Lookup(class)
	return err == nil
}

// Classes returns the registered classes in sorted order.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	classes := make([]string, 0, len(r.factories))
	for class := range r.factories {
		classes = append(classes, class)
	}
	slices.Sort(classes)

	return classes
}
