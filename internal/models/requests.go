// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package models

// Request DTOs carry `validate` tags checked client-side before a write is
// sent, and `binding` tags used by the stub backend. Update DTOs use
// pointers so that omitted fields are not sent.

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required" binding:"required"`
	Password string `json:"password" validate:"required" binding:"required"`
}

// LoginResponse is returned by POST /auth/login and /auth/refresh.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	Role        Role   `json:"role"`
}

// RegisterUserRequest is the body of POST /users/register and POST /users.
type RegisterUserRequest struct {
	Username         string   `json:"username" validate:"required,min=3" binding:"required"`
	Password         string   `json:"password,omitempty" validate:"omitempty,min=6"`
	FirstName        string   `json:"firstName" validate:"required" binding:"required"`
	LastName         string   `json:"lastName" validate:"required" binding:"required"`
	Email            string   `json:"email" validate:"required,email" binding:"required,email"`
	Role             Role     `json:"role" validate:"required,oneof=ADMIN MANAGER SALES USER" binding:"required"`
	BaseSalary       *float64 `json:"baseSalary,omitempty" validate:"omitempty,gte=0"`
	CommissionRate   *float64 `json:"commissionRate,omitempty" validate:"omitempty,gte=0,lte=1"`
	CompensationType string   `json:"compensationType,omitempty" validate:"omitempty,oneof=SALARY COMMISSION SALARY_PLUS_COMMISSION"`
}

// UpdateUserRequest is the body of PUT /users/{id}.
type UpdateUserRequest struct {
	FirstName        *string  `json:"firstName,omitempty"`
	LastName         *string  `json:"lastName,omitempty"`
	Email            *string  `json:"email,omitempty" validate:"omitempty,email"`
	Role             *Role    `json:"role,omitempty" validate:"omitempty,oneof=ADMIN MANAGER SALES USER"`
	BaseSalary       *float64 `json:"baseSalary,omitempty" validate:"omitempty,gte=0"`
	CommissionRate   *float64 `json:"commissionRate,omitempty" validate:"omitempty,gte=0,lte=1"`
	CompensationType *string  `json:"compensationType,omitempty" validate:"omitempty,oneof=SALARY COMMISSION SALARY_PLUS_COMMISSION"`
}

// CreateLeadRequest is the body of POST /leads.
type CreateLeadRequest struct {
	FirstName string `json:"firstName" validate:"required" binding:"required"`
	LastName  string `json:"lastName" validate:"required" binding:"required"`
	Email     string `json:"email" validate:"required,email" binding:"required,email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=NEW CONTACTED QUALIFIED OPPORTUNITY CONTRACT CLOSED_WON CLOSED_LOST"`
	Priority  string `json:"priority,omitempty"`
	Source    string `json:"source,omitempty"`
}

// UpdateLeadRequest is the body of PUT /leads/{id}.
type UpdateLeadRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty"`
	Company   *string `json:"company,omitempty"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=NEW CONTACTED QUALIFIED OPPORTUNITY CONTRACT CLOSED_WON CLOSED_LOST"`
	Priority  *string `json:"priority,omitempty"`
	Source    *string `json:"source,omitempty"`
}

// CreateSiteRequest is the body of POST /properties/sites.
type CreateSiteRequest struct {
	Name             string `json:"name" validate:"required" binding:"required"`
	AddressLine1     string `json:"addressLine1" validate:"required" binding:"required"`
	AddressLine2     string `json:"addressLine2,omitempty"`
	City             string `json:"city" validate:"required" binding:"required"`
	State            string `json:"state,omitempty"`
	Country          string `json:"country" validate:"required" binding:"required"`
	PostalCode       string `json:"postalCode,omitempty"`
	ParkingAvailable bool   `json:"parkingAvailable"`
	Description      string `json:"description,omitempty"`
}

// UpdateSiteRequest is the body of PUT /properties/sites/{id}.
type UpdateSiteRequest struct {
	Name             *string `json:"name,omitempty"`
	AddressLine1     *string `json:"addressLine1,omitempty"`
	AddressLine2     *string `json:"addressLine2,omitempty"`
	City             *string `json:"city,omitempty"`
	State            *string `json:"state,omitempty"`
	Country          *string `json:"country,omitempty"`
	PostalCode       *string `json:"postalCode,omitempty"`
	ParkingAvailable *bool   `json:"parkingAvailable,omitempty"`
	Description      *string `json:"description,omitempty"`
}

// CreateBuildingRequest is the body of POST /properties/buildings.
type CreateBuildingRequest struct {
	Name         string  `json:"name" validate:"required" binding:"required"`
	FloorCount   int     `json:"floorCount" validate:"gte=1" binding:"gte=1"`
	TotalAreaSqm float64 `json:"totalAreaSqm" validate:"gt=0" binding:"gt=0"`
	SiteID       string  `json:"siteId" validate:"required" binding:"required"`
}

// UpdateBuildingRequest is the body of PUT /properties/buildings/{id}.
type UpdateBuildingRequest struct {
	Name         *string  `json:"name,omitempty"`
	FloorCount   *int     `json:"floorCount,omitempty" validate:"omitempty,gte=1"`
	TotalAreaSqm *float64 `json:"totalAreaSqm,omitempty" validate:"omitempty,gt=0"`
	SiteID       *string  `json:"siteId,omitempty"`
}

// CreateUnitRequest is the body of POST /properties/units.
type CreateUnitRequest struct {
	UnitNumber   string  `json:"unitNumber" validate:"required" binding:"required"`
	Type         string  `json:"type" validate:"required,oneof=APARTMENT OFFICE SHOP MIXED" binding:"required"`
	Floor        int     `json:"floor" validate:"gte=0"`
	AreaSqm      float64 `json:"areaSqm" validate:"gt=0" binding:"gt=0"`
	ParkingSlots int     `json:"parkingSlots" validate:"gte=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	Status       string  `json:"status" validate:"required,oneof=AVAILABLE RESERVED LEASED SOLD" binding:"required"`
	BuildingID   string  `json:"buildingId" validate:"required" binding:"required"`
	OwnerID      string  `json:"ownerId,omitempty"`
}

// UpdateUnitRequest is the body of PUT /properties/units/{id}.
type UpdateUnitRequest struct {
	UnitNumber   *string  `json:"unitNumber,omitempty"`
	Type         *string  `json:"type,omitempty" validate:"omitempty,oneof=APARTMENT OFFICE SHOP MIXED"`
	Floor        *int     `json:"floor,omitempty" validate:"omitempty,gte=0"`
	AreaSqm      *float64 `json:"areaSqm,omitempty" validate:"omitempty,gt=0"`
	ParkingSlots *int     `json:"parkingSlots,omitempty" validate:"omitempty,gte=0"`
	Price        *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Status       *string  `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE RESERVED LEASED SOLD"`
	BuildingID   *string  `json:"buildingId,omitempty"`
	OwnerID      *string  `json:"ownerId,omitempty"`
}

// UnitFilter narrows GET /properties/units.
type UnitFilter struct {
	Status     string
	Type       string
	BuildingID string
}

// CreateOwnerRequest is the body of POST /properties/owners.
type CreateOwnerRequest struct {
	Name          string `json:"name" validate:"required" binding:"required"`
	ContactPerson string `json:"contactPerson" validate:"required" binding:"required"`
	Email         string `json:"email" validate:"required,email" binding:"required,email"`
	Phone         string `json:"phone" validate:"required" binding:"required"`
	Address       string `json:"address,omitempty"`
	TaxNumber     string `json:"taxNumber,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// UpdateOwnerRequest is the body of PUT /properties/owners/{id}.
type UpdateOwnerRequest struct {
	Name          *string `json:"name,omitempty"`
	ContactPerson *string `json:"contactPerson,omitempty"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	TaxNumber     *string `json:"taxNumber,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}
