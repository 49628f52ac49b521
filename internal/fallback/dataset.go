// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fallback holds the canned CRM dataset served while the backend is
// unreachable, and synthesizes success envelopes for offline writes.
//
// The dataset is built once and never mutated. Every accessor returns a
// copy, so callers may modify what they get back.
package fallback

import (
	"fmt"
	"time"

	"github.com/realestatecrm/crmgateway/internal/models"
)

// mockIDPrefix is the fixed part of every canned identifier.
const mockIDPrefix = "550e8400-e29b-41d4-a716-"

// MockID returns the deterministic identifier for a dataset seed: the
// fixed prefix followed by the seed as 12 zero-padded hex digits.
//
// # Example
//
//	fallback.MockID(1)   // "550e8400-e29b-41d4-a716-000000000001"
//	fallback.MockID(401) // "550e8400-e29b-41d4-a716-000000000191"
func MockID(seed int64) string {
	return fmt.Sprintf("%s%012x", mockIDPrefix, seed)
}

// Dataset is the immutable set of canned records.
//
// # Thread Safety
//
// Dataset is read-only after construction and safe for concurrent use.
type Dataset struct {
	leads     []models.Lead
	users     []models.User
	sites     []models.Site
	buildings []models.Building
	units     []models.Unit
	owners    []models.Owner
}

// NewDataset builds the canned records, stamping timestamps with now.
func NewDataset(now time.Time) *Dataset {
	ts := now.UTC().Format(time.RFC3339)

	sites := []models.Site{
		{
			ID:               MockID(1),
			Name:             "Bole Site",
			AddressLine1:     "Main Street",
			City:             "Addis Ababa",
			Country:          "Ethiopia",
			ParkingAvailable: true,
			CreatedAt:        ts,
			BuildingCount:    2,
		},
		{
			ID:               MockID(2),
			Name:             "Business District Tower",
			AddressLine1:     "456 Business Ave",
			City:             "Addis Ababa",
			Country:          "Ethiopia",
			ParkingAvailable: false,
			CreatedAt:        ts,
			BuildingCount:    1,
		},
	}

	buildings := []models.Building{
		{ID: MockID(101), Name: "Tower A", FloorCount: 10, TotalAreaSqm: 5000, SiteID: sites[0].ID, SiteName: sites[0].Name, CreatedAt: ts, UnitCount: 5},
		{ID: MockID(102), Name: "Tower B", FloorCount: 8, TotalAreaSqm: 4000, SiteID: sites[0].ID, SiteName: sites[0].Name, CreatedAt: ts, UnitCount: 3},
	}

	owners := []models.Owner{
		{
			ID:              MockID(301),
			Name:            "Nurye Nigus",
			ContactPerson:   "Nurye Nigus",
			Email:           "nurye.nigus.me@gmail.com",
			Phone:           "+251970124500",
			Address:         "123 Main Street, Addis Ababa",
			TaxNumber:       "TAX123456",
			Notes:           "Primary property owner",
			CreatedAt:       ts,
			OwnedUnitsCount: 2,
		},
		{
			ID:              MockID(302),
			Name:            "Real Estate Holdings",
			ContactPerson:   "Manager",
			Email:           "contact@realestateholdings.com",
			Phone:           "+251911223344",
			Address:         "456 Business Avenue, Addis Ababa",
			TaxNumber:       "TAX789012",
			Notes:           "Commercial property investment company",
			CreatedAt:       ts,
			OwnedUnitsCount: 1,
		},
	}

	units := []models.Unit{
		{
			ID:           MockID(201),
			UnitNumber:   "A-101",
			Type:         models.UnitTypeApartment,
			Floor:        1,
			AreaSqm:      120,
			ParkingSlots: 1,
			Price:        250000,
			Status:       models.UnitStatusAvailable,
			BuildingID:   buildings[0].ID,
			BuildingName: buildings[0].Name,
			CreatedAt:    ts,
		},
		{
			ID:           MockID(202),
			UnitNumber:   "A-201",
			Type:         models.UnitTypeOffice,
			Floor:        2,
			AreaSqm:      200,
			ParkingSlots: 2,
			Price:        500000,
			Status:       models.UnitStatusLeased,
			BuildingID:   buildings[0].ID,
			BuildingName: buildings[0].Name,
			OwnerID:      owners[0].ID,
			OwnerName:    owners[0].Name,
			CreatedAt:    ts,
		},
	}

	leads := []models.Lead{
		{ID: MockID(401), FirstName: "nur", LastName: "king", Email: "nur.king@example.com", Phone: "+241990890", Status: models.LeadStatusNew, Source: "Website", CreatedAt: ts, UpdatedAt: ts},
		{ID: MockID(402), FirstName: "abebe", LastName: "beso", Email: "abe.bes0@example.com", Phone: "+25178989891", Status: models.LeadStatusContacted, Source: "Referral", CreatedAt: ts, UpdatedAt: ts},
	}

	users := []models.User{
		{ID: MockID(501), Username: "admin", FirstName: "System", LastName: "Administrator", Email: "admin@crm.com", Role: models.RoleAdmin, CreatedAt: ts, UpdatedAt: ts},
		{ID: MockID(502), Username: "manager1", FirstName: "Sarah", LastName: "Manager", Email: "sarah.manager@crm.com", Role: models.RoleManager, CreatedAt: ts, UpdatedAt: ts},
		{ID: MockID(503), Username: "sales1", FirstName: "antenh", LastName: "Sales", Email: "anteneh.sales@crm.com", Role: models.RoleSales, CreatedAt: ts, UpdatedAt: ts},
	}

	return &Dataset{
		leads:     leads,
		users:     users,
		sites:     sites,
		buildings: buildings,
		units:     units,
		owners:    owners,
	}
}

// ===== Collections =====

// Leads returns every canned lead.
func (d *Dataset) Leads() []models.Lead { return clone(d.leads) }

// Users returns every canned user.
func (d *Dataset) Users() []models.User { return clone(d.users) }

// Sites returns every canned site.
func (d *Dataset) Sites() []models.Site { return clone(d.sites) }

// Buildings returns every canned building.
func (d *Dataset) Buildings() []models.Building { return clone(d.buildings) }

// Owners returns every canned owner.
func (d *Dataset) Owners() []models.Owner { return clone(d.owners) }

// Units returns the canned units matching filter. Empty filter fields
// match everything.
func (d *Dataset) Units(filter models.UnitFilter) []models.Unit {
	out := make([]models.Unit, 0, len(d.units))
	for _, u := range d.units {
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if filter.Type != "" && u.Type != filter.Type {
			continue
		}
		if filter.BuildingID != "" && u.BuildingID != filter.BuildingID {
			continue
		}
		out = append(out, u)
	}
	return out
}

// BuildingsBySite returns the canned buildings of one site.
func (d *Dataset) BuildingsBySite(siteID string) []models.Building {
	out := make([]models.Building, 0, len(d.buildings))
	for _, b := range d.buildings {
		if b.SiteID == siteID {
			out = append(out, b)
		}
	}
	return out
}

// ===== Single records =====
//
// Each returns nil when no record has the id.

func (d *Dataset) Lead(id string) *models.Lead {
	return find(d.leads, id, func(l models.Lead) string { return l.ID })
}

func (d *Dataset) User(id string) *models.User {
	return find(d.users, id, func(u models.User) string { return u.ID })
}

func (d *Dataset) Site(id string) *models.Site {
	return find(d.sites, id, func(s models.Site) string { return s.ID })
}

func (d *Dataset) Building(id string) *models.Building {
	return find(d.buildings, id, func(b models.Building) string { return b.ID })
}

func (d *Dataset) Unit(id string) *models.Unit {
	return find(d.units, id, func(u models.Unit) string { return u.ID })
}

func (d *Dataset) Owner(id string) *models.Owner {
	return find(d.owners, id, func(o models.Owner) string { return o.ID })
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func find[T any](records []T, id string, key func(T) string) *T {
	for _, r := range records {
		if key(r) == id {
			found := r
			return &found
		}
	}
	return nil
}
