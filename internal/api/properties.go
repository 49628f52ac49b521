// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/realestatecrm/crmgateway/internal/gateway"
	"github.com/realestatecrm/crmgateway/internal/models"
)

const (
	sitesPath     = "/properties/sites"
	buildingsPath = "/properties/buildings"
	unitsPath     = "/properties/units"
	ownersPath    = "/properties/owners"
)

func itemPath(base, id string) string { return base + "/" + url.PathEscape(id) }

// =============================================================================
// Sites
// =============================================================================

// SiteService covers /properties/sites.
type SiteService struct{ c *Client }

// GetAll lists sites.
func (s *SiteService) GetAll(ctx context.Context) (gateway.Result[[]models.Site], error) {
	return read(ctx, s.c, sitesPath, nil, s.c.dataset().Sites())
}

// GetByID fetches one site.
func (s *SiteService) GetByID(ctx context.Context, id string) (gateway.Result[*models.Site], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[*models.Site]{}, err
	}
	return read(ctx, s.c, itemPath(sitesPath, id), nil, s.c.dataset().Site(id))
}

// Create posts a new site.
func (s *SiteService) Create(ctx context.Context, req models.CreateSiteRequest) (gateway.Result[models.Site], error) {
	return validatedWrite[models.Site](ctx, s.c, http.MethodPost, sitesPath, req,
		"Failed to create site. Please check the data and try again.")
}

// Update puts the changed fields of a site.
func (s *SiteService) Update(ctx context.Context, id string, req models.UpdateSiteRequest) (gateway.Result[models.Site], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.Site]{}, err
	}
	return validatedWrite[models.Site](ctx, s.c, http.MethodPut, itemPath(sitesPath, id), req,
		"Failed to update site. Please check the data and try again.")
}

// Delete removes a site.
func (s *SiteService) Delete(ctx context.Context, id string) (gateway.Result[models.MutationResult], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.MutationResult]{}, err
	}
	return write[models.MutationResult](ctx, s.c, http.MethodDelete, itemPath(sitesPath, id), nil,
		"Failed to delete site. It may not exist or has dependencies.")
}

// =============================================================================
// Buildings
// =============================================================================

// BuildingService covers /properties/buildings.
type BuildingService struct{ c *Client }

// GetAll lists buildings.
func (s *BuildingService) GetAll(ctx context.Context) (gateway.Result[[]models.Building], error) {
	return read(ctx, s.c, buildingsPath, nil, s.c.dataset().Buildings())
}

// GetByID fetches one building.
func (s *BuildingService) GetByID(ctx context.Context, id string) (gateway.Result[*models.Building], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[*models.Building]{}, err
	}
	return read(ctx, s.c, itemPath(buildingsPath, id), nil, s.c.dataset().Building(id))
}

// GetBySite lists the buildings of one site.
func (s *BuildingService) GetBySite(ctx context.Context, siteID string) (gateway.Result[[]models.Building], error) {
	if err := requireID("siteId", siteID); err != nil {
		return gateway.Result[[]models.Building]{}, err
	}
	return read(ctx, s.c, itemPath(sitesPath, siteID)+"/buildings", nil, s.c.dataset().BuildingsBySite(siteID))
}

// Create posts a new building.
func (s *BuildingService) Create(ctx context.Context, req models.CreateBuildingRequest) (gateway.Result[models.Building], error) {
	return validatedWrite[models.Building](ctx, s.c, http.MethodPost, buildingsPath, req,
		"Failed to create building. Please check that all required fields are filled and the site exists.")
}

// Update puts the changed fields of a building.
func (s *BuildingService) Update(ctx context.Context, id string, req models.UpdateBuildingRequest) (gateway.Result[models.Building], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.Building]{}, err
	}
	return validatedWrite[models.Building](ctx, s.c, http.MethodPut, itemPath(buildingsPath, id), req,
		"Failed to update building. Please check the data and try again.")
}

// Delete removes a building.
func (s *BuildingService) Delete(ctx context.Context, id string) (gateway.Result[models.MutationResult], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.MutationResult]{}, err
	}
	return write[models.MutationResult](ctx, s.c, http.MethodDelete, itemPath(buildingsPath, id), nil,
		"Failed to delete building. It may not exist or has units attached.")
}

// =============================================================================
// Units
// =============================================================================

// UnitService covers /properties/units.
type UnitService struct{ c *Client }

type unitStatusBody struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE RESERVED LEASED SOLD"`
}

type unitOwnerBody struct {
	OwnerID string `json:"ownerId" validate:"required"`
}

// GetAll lists units matching filter. Empty filter fields are not sent,
// and the fallback honours the same filter.
func (s *UnitService) GetAll(ctx context.Context, filter models.UnitFilter) (gateway.Result[[]models.Unit], error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}
	if filter.BuildingID != "" {
		query.Set("buildingId", filter.BuildingID)
	}
	if len(query) == 0 {
		query = nil
	}
	return read(ctx, s.c, unitsPath, query, s.c.dataset().Units(filter))
}

// GetByID fetches one unit.
func (s *UnitService) GetByID(ctx context.Context, id string) (gateway.Result[*models.Unit], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[*models.Unit]{}, err
	}
	return read(ctx, s.c, itemPath(unitsPath, id), nil, s.c.dataset().Unit(id))
}

// Create posts a new unit.
func (s *UnitService) Create(ctx context.Context, req models.CreateUnitRequest) (gateway.Result[models.Unit], error) {
	return validatedWrite[models.Unit](ctx, s.c, http.MethodPost, unitsPath, req,
		"Failed to create unit. Please check that all required fields are filled and the building exists.")
}

// Update puts the changed fields of a unit.
func (s *UnitService) Update(ctx context.Context, id string, req models.UpdateUnitRequest) (gateway.Result[models.Unit], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.Unit]{}, err
	}
	return validatedWrite[models.Unit](ctx, s.c, http.MethodPut, itemPath(unitsPath, id), req,
		"Failed to update unit. Please check the data and try again.")
}

// UpdateStatus patches a unit's availability.
func (s *UnitService) UpdateStatus(ctx context.Context, id, status string) (gateway.Result[models.Unit], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.Unit]{}, err
	}
	return validatedWrite[models.Unit](ctx, s.c, http.MethodPatch, itemPath(unitsPath, id)+"/status",
		unitStatusBody{Status: status}, "Failed to update unit status.")
}

// AssignOwner links a unit to an owner.
func (s *UnitService) AssignOwner(ctx context.Context, id, ownerID string) (gateway.Result[models.Unit], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.Unit]{}, err
	}
	return validatedWrite[models.Unit](ctx, s.c, http.MethodPatch, itemPath(unitsPath, id)+"/assign-owner",
		unitOwnerBody{OwnerID: ownerID}, "Failed to assign owner to unit.")
}

// Delete removes a unit.
func (s *UnitService) Delete(ctx context.Context, id string) (gateway.Result[models.MutationResult], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.MutationResult]{}, err
	}
	return write[models.MutationResult](ctx, s.c, http.MethodDelete, itemPath(unitsPath, id), nil,
		"Failed to delete unit.")
}

// =============================================================================
// Owners
// =============================================================================

// OwnerService covers /properties/owners.
type OwnerService struct{ c *Client }

// GetAll lists owners.
func (s *OwnerService) GetAll(ctx context.Context) (gateway.Result[[]models.Owner], error) {
	return read(ctx, s.c, ownersPath, nil, s.c.dataset().Owners())
}

// GetByID fetches one owner.
func (s *OwnerService) GetByID(ctx context.Context, id string) (gateway.Result[*models.Owner], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[*models.Owner]{}, err
	}
	return read(ctx, s.c, itemPath(ownersPath, id), nil, s.c.dataset().Owner(id))
}

// Create posts a new owner.
func (s *OwnerService) Create(ctx context.Context, req models.CreateOwnerRequest) (gateway.Result[models.Owner], error) {
	return validatedWrite[models.Owner](ctx, s.c, http.MethodPost, ownersPath, req,
		"Failed to create owner. Please check that all required fields are filled.")
}

// Update puts the changed fields of an owner.
func (s *OwnerService) Update(ctx context.Context, id string, req models.UpdateOwnerRequest) (gateway.Result[models.Owner], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.Owner]{}, err
	}
	return validatedWrite[models.Owner](ctx, s.c, http.MethodPut, itemPath(ownersPath, id), req,
		"Failed to update owner. Please check the data and try again.")
}

// Delete removes an owner.
func (s *OwnerService) Delete(ctx context.Context, id string) (gateway.Result[models.MutationResult], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.MutationResult]{}, err
	}
	return write[models.MutationResult](ctx, s.c, http.MethodDelete, itemPath(ownersPath, id), nil,
		"Failed to delete owner. It may not exist or has units assigned.")
}
