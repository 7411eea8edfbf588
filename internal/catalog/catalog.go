// Package catalog holds the ordered, read-only list of bookable services and
// the staff member assigned to each one.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Service maps a human-readable service name to the doctor who provides it.
type Service struct {
	Name    string `json:"name"`
	Doctor  string `json:"doctor"`
	StaffID string `json:"staff_id"`
}

// Catalog is an ordered set of services. It is built once and never mutated.
type Catalog struct {
	services []Service
	byName   map[string]int
}

// Default is the catalog used when SERVICE_CATALOG_JSON is not set.
func Default() *Catalog {
	c, err := New([]Service{
		{Name: "Medicina General", Doctor: "Dra. Laura Méndez", StaffID: "101"},
		{Name: "Pediatría", Doctor: "Dr. Carlos Ruiz", StaffID: "102"},
		{Name: "Dermatología", Doctor: "Dra. Ana Torres", StaffID: "103"},
		{Name: "Ginecología", Doctor: "Dra. Sofía Herrera", StaffID: "104"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// New validates and indexes the given services, preserving their order.
func New(services []Service) (*Catalog, error) {
	if len(services) == 0 {
		return nil, errors.New("catalog: at least one service is required")
	}
	c := &Catalog{
		services: make([]Service, 0, len(services)),
		byName:   make(map[string]int, len(services)),
	}
	for i, svc := range services {
		svc.Name = strings.TrimSpace(svc.Name)
		svc.Doctor = strings.TrimSpace(svc.Doctor)
		svc.StaffID = strings.TrimSpace(svc.StaffID)
		if svc.Name == "" || svc.StaffID == "" {
			return nil, fmt.Errorf("catalog: service %d requires name and staff_id", i+1)
		}
		key := Normalize(svc.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate service %q", svc.Name)
		}
		c.byName[key] = len(c.services)
		c.services = append(c.services, svc)
	}
	return c, nil
}

// Parse builds a catalog from a JSON array of services.
func Parse(raw string) (*Catalog, error) {
	var services []Service
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return nil, fmt.Errorf("catalog: decode json: %w", err)
	}
	return New(services)
}

// Load returns the catalog described by raw, or the default catalog when raw is blank.
func Load(raw string) (*Catalog, error) {
	if strings.TrimSpace(raw) == "" {
		return Default(), nil
	}
	return Parse(raw)
}

// Services returns a copy of the services in catalog order.
func (c *Catalog) Services() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Names returns the service names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.services))
	for i, svc := range c.services {
		out[i] = svc.Name
	}
	return out
}

// Len returns the number of services.
func (c *Catalog) Len() int {
	return len(c.services)
}

// Lookup finds a service by name, ignoring case and accents.
func (c *Catalog) Lookup(name string) (Service, bool) {
	idx, ok := c.byName[Normalize(name)]
	if !ok {
		return Service{}, false
	}
	return c.services[idx], true
}

// Match returns the first service whose normalized name appears in text.
func (c *Catalog) Match(text string) (Service, bool) {
	norm := " " + Normalize(text) + " "
	for _, svc := range c.services {
		if strings.Contains(norm, " "+Normalize(svc.Name)+" ") {
			return svc, true
		}
	}
	return Service{}, false
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

// Normalize lowercases s, folds Spanish accents and collapses whitespace.
func Normalize(s string) string {
	s = accentReplacer.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
