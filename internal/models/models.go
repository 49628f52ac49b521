// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package models defines the CRM wire types exchanged with the backend.
//
// The gateway treats these as opaque payloads; only the backend validates
// them. Field names follow the backend's camelCase JSON.
package models

// Role is a CRM user role.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleSales   Role = "SALES"
	RoleUser    Role = "USER"
)

// LeadStatus values accepted by PATCH /leads/{id}/status.
const (
	LeadStatusNew         = "NEW"
	LeadStatusContacted   = "CONTACTED"
	LeadStatusQualified   = "QUALIFIED"
	LeadStatusOpportunity = "OPPORTUNITY"
	LeadStatusContract    = "CONTRACT"
	LeadStatusClosedWon   = "CLOSED_WON"
	LeadStatusClosedLost  = "CLOSED_LOST"
)

// LeadStatuses lists every lead status in pipeline order.
var LeadStatuses = []string{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusOpportunity,
	LeadStatusContract, LeadStatusClosedWon, LeadStatusClosedLost,
}

// Compensation types for sales users.
const (
	CompensationSalary               = "SALARY"
	CompensationCommission           = "COMMISSION"
	CompensationSalaryPlusCommission = "SALARY_PLUS_COMMISSION"
)

// Unit types and statuses.
const (
	UnitTypeApartment = "APARTMENT"
	UnitTypeOffice    = "OFFICE"
	UnitTypeShop      = "SHOP"
	UnitTypeMixed     = "MIXED"

	UnitStatusAvailable = "AVAILABLE"
	UnitStatusReserved  = "RESERVED"
	UnitStatusLeased    = "LEASED"
	UnitStatusSold      = "SOLD"
)

// Lead is a sales prospect.
type Lead struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Company    string `json:"company,omitempty"`
	Status     string `json:"status"`
	Priority   string `json:"priority,omitempty"`
	Source     string `json:"source,omitempty"`
	AssignedTo string `json:"assignedTo,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// User is a CRM account.
type User struct {
	ID               string   `json:"id"`
	Username         string   `json:"username"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Email            string   `json:"email"`
	Role             Role     `json:"role"`
	BaseSalary       *float64 `json:"baseSalary,omitempty"`
	CommissionRate   *float64 `json:"commissionRate,omitempty"`
	CompensationType string   `json:"compensationType,omitempty"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
}

// Site is a property location grouping buildings.
type Site struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AddressLine1     string `json:"addressLine1"`
	AddressLine2     string `json:"addressLine2,omitempty"`
	City             string `json:"city"`
	State            string `json:"state,omitempty"`
	Country          string `json:"country"`
	PostalCode       string `json:"postalCode,omitempty"`
	ParkingAvailable bool   `json:"parkingAvailable"`
	Description      string `json:"description,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
	BuildingCount    int    `json:"buildingCount,omitempty"`
}

// Building belongs to a Site.
type Building struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	FloorCount   int     `json:"floorCount"`
	TotalAreaSqm float64 `json:"totalAreaSqm"`
	SiteID       string  `json:"siteId"`
	SiteName     string  `json:"siteName,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UnitCount    int     `json:"unitCount,omitempty"`
}

// Unit is a sellable or leasable space inside a Building.
type Unit struct {
	ID           string  `json:"id"`
	UnitNumber   string  `json:"unitNumber"`
	Type         string  `json:"type"`
	Floor        int     `json:"floor"`
	AreaSqm      float64 `json:"areaSqm"`
	ParkingSlots int     `json:"parkingSlots"`
	Price        float64 `json:"price"`
	Status       string  `json:"status"`
	BuildingID   string  `json:"buildingId"`
	BuildingName string  `json:"buildingName,omitempty"`
	OwnerID      string  `json:"ownerId,omitempty"`
	OwnerName    string  `json:"ownerName,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}

// Owner holds title to units.
type Owner struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ContactPerson   string `json:"contactPerson"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address,omitempty"`
	TaxNumber       string `json:"taxNumber,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	OwnedUnitsCount int    `json:"ownedUnitsCount,omitempty"`
}

// HealthStatus is the body of /health and /properties/health.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// MutationResult is the minimal body of write endpoints that do not return
// the entity (deletes, logout) and of simulated offline writes.
type MutationResult struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	Success   bool   `json:"success,omitempty"`
	Message   string `json:"message,omitempty"`
}
