// Package catalog holds the salon's service menu and team roster. The data is
// static and read-only; the booking wizard resolves ids against it.
package catalog

import (
	"errors"
	"strings"
)

var (
	// ErrServiceNotFound is returned when a service id is not on the menu.
	ErrServiceNotFound = errors.New("catalog: service not found")
	// ErrTechnicianNotFound is returned when a team member id is unknown or not bookable.
	ErrTechnicianNotFound = errors.New("catalog: technician not found")
	// ErrNoPricingTier is returned for a service that has no tiers configured.
	ErrNoPricingTier = errors.New("catalog: service has no pricing tier")
)

// PricingTier is one named price/duration variant of a service.
type PricingTier struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"` // minutes
}

// Service is a menu entry.
type Service struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Category     string        `json:"category"`
	Description  string        `json:"description"`
	PricingTiers []PricingTier `json:"pricingTiers"`
}

// DefaultTier returns the first pricing tier. The booking grid only ever
// offers this one.
func (s Service) DefaultTier() (PricingTier, error) {
	if len(s.PricingTiers) == 0 {
		return PricingTier{}, ErrNoPricingTier
	}
	return s.PricingTiers[0], nil
}

// TeamMember is a technician on the roster.
type TeamMember struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Specialties []string `json:"specialties"`
	Image       string   `json:"image,omitempty"`
	Featured    bool     `json:"featured"`
}

// Catalog indexes services and team members by id.
type Catalog struct {
	services []Service
	team     []TeamMember
	byID     map[string]Service
	teamByID map[string]TeamMember
}

// New builds a catalog from the given menu and roster.
func New(services []Service, team []TeamMember) *Catalog {
	c := &Catalog{
		services: services,
		team:     team,
		byID:     make(map[string]Service, len(services)),
		teamByID: make(map[string]TeamMember, len(team)),
	}
	for _, s := range services {
		c.byID[s.ID] = s
	}
	for _, m := range team {
		c.teamByID[m.ID] = m
	}
	return c
}

// Default returns the studio's published menu and roster.
func Default() *Catalog {
	return New(defaultServices, defaultTeam)
}

// Services lists the menu, optionally filtered by category.
func (c *Catalog) Services(category string) []Service {
	category = strings.TrimSpace(category)
	out := make([]Service, 0, len(c.services))
	for _, s := range c.services {
		if category == "" || strings.EqualFold(s.Category, category) {
			out = append(out, s)
		}
	}
	return out
}

// Service looks up a service by id.
func (c *Catalog) Service(id string) (Service, error) {
	s, ok := c.byID[id]
	if !ok {
		return Service{}, ErrServiceNotFound
	}
	return s, nil
}

// FeaturedTechnicians returns the team members offered on the technician step.
func (c *Catalog) FeaturedTechnicians() []TeamMember {
	out := make([]TeamMember, 0, len(c.team))
	for _, m := range c.team {
		if m.Featured {
			out = append(out, m)
		}
	}
	return out
}

// Technician resolves a featured team member by id.
func (c *Catalog) Technician(id string) (TeamMember, error) {
	m, ok := c.teamByID[id]
	if !ok || !m.Featured {
		return TeamMember{}, ErrTechnicianNotFound
	}
	return m, nil
}
