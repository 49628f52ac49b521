// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stubserver

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/realestatecrm/crmgateway/internal/models"
)

var (
	leadStatuses = func() map[string]bool {
		m := make(map[string]bool, len(models.LeadStatuses))
		for _, st := range models.LeadStatuses {
			m[st] = true
		}
		return m
	}()
	unitStatuses = map[string]bool{
		models.UnitStatusAvailable: true, models.UnitStatusReserved: true,
		models.UnitStatusLeased: true, models.UnitStatusSold: true,
	}
)

func newID() string { return uuid.NewString() }

func (s *Server) timestamp() string { return s.now().UTC().Format(time.RFC3339) }

// bindJSON decodes the body into dst and answers 400 when it fails.
// Binding failures are reported as a field-to-message map, malformed JSON
// as a plain string.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			name := wireName(dst, fe.StructField())
			fields[name] = bindingMessage(name, fe.Tag())
		}
		c.JSON(http.StatusBadRequest, fields)
		return false
	}
	c.String(http.StatusBadRequest, "Invalid request body")
	return false
}

// wireName returns the JSON name of a field of the struct dst points to.
func wireName(dst any, field string) string {
	t := reflect.TypeOf(dst)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if sf, ok := t.FieldByName(field); ok {
			if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" && name != "-" {
				return name
			}
		}
	}
	return field
}

func bindingMessage(field, tag string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	default:
		return field + " is invalid"
	}
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

func conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, gin.H{"message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

func deleted(c *gin.Context, id string) {
	c.JSON(http.StatusOK, models.MutationResult{ID: id, Success: true})
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// =============================================================================
// Health and auth
// =============================================================================

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthStatus{Status: "UP"})
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	users := s.users.List(func(u models.User) bool { return u.Username == req.Username })
	if len(users) == 0 || req.Password != s.password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	role := users[0].Role
	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken: s.IssueToken(role),
		ExpiresIn:   int64(TokenTTL.Seconds()),
		Role:        role,
	})
}

func (s *Server) logout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		s.tokensMu.Lock()
		delete(s.tokens, token)
		s.tokensMu.Unlock()
	}
	c.JSON(http.StatusOK, models.MutationResult{Success: true, Message: "Logged out"})
}

func (s *Server) refresh(c *gin.Context) {
	token := bearerToken(c)
	role, ok := s.roleFor(token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	s.tokensMu.Lock()
	delete(s.tokens, token)
	s.tokensMu.Unlock()
	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken: s.IssueToken(role),
		ExpiresIn:   int64(TokenTTL.Seconds()),
		Role:        role,
	})
}

// =============================================================================
// Users
// =============================================================================

func (s *Server) listUsers(c *gin.Context) { c.JSON(http.StatusOK, s.users.List(nil)) }

func (s *Server) getUser(c *gin.Context) {
	u, ok := s.users.Get(c.Param("id"))
	if !ok {
		notFound(c, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) createUser(c *gin.Context) {
	var req models.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if taken := s.users.List(func(u models.User) bool { return u.Username == req.Username }); len(taken) > 0 {
		badRequest(c, "Username already exists")
		return
	}
	user := models.User{
		ID:               newID(),
		Username:         req.Username,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Role:             req.Role,
		BaseSalary:       req.BaseSalary,
		CommissionRate:   req.CommissionRate,
		CompensationType: req.CompensationType,
		CreatedAt:        s.timestamp(),
	}
	s.users.Insert(user)
	c.JSON(http.StatusCreated, user)
}

func (s *Server) updateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, ok := s.users.Update(c.Param("id"), func(u *models.User) {
		setString(&u.FirstName, req.FirstName)
		setString(&u.LastName, req.LastName)
		setString(&u.Email, req.Email)
		setString(&u.CompensationType, req.CompensationType)
		if req.Role != nil {
			u.Role = *req.Role
		}
		if req.BaseSalary != nil {
			u.BaseSalary = req.BaseSalary
		}
		if req.CommissionRate != nil {
			u.CommissionRate = req.CommissionRate
		}
		u.UpdatedAt = s.timestamp()
	})
	if !ok {
		notFound(c, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if !s.users.Delete(id) {
		notFound(c, "User")
		return
	}
	deleted(c, id)
}

// =============================================================================
// Leads
// =============================================================================

func (s *Server) listLeads(c *gin.Context) { c.JSON(http.StatusOK, s.leads.List(nil)) }

func (s *Server) getLead(c *gin.Context) {
	l, ok := s.leads.Get(c.Param("id"))
	if !ok {
		notFound(c, "Lead")
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) createLead(c *gin.Context) {
	var req models.CreateLeadRequest
	if !bindJSON(c, &req) {
		return
	}
	status := req.Status
	if status == "" {
		status = models.LeadStatusNew
	}
	if !leadStatuses[status] {
		c.String(http.StatusBadRequest, "Invalid status value: "+status)
		return
	}
	lead := models.Lead{
		ID:        newID(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Status:    status,
		Priority:  req.Priority,
		Source:    req.Source,
		CreatedAt: s.timestamp(),
	}
	s.leads.Insert(lead)
	c.JSON(http.StatusCreated, lead)
}

func (s *Server) updateLead(c *gin.Context) {
	var req models.UpdateLeadRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Status != nil && !leadStatuses[*req.Status] {
		c.String(http.StatusBadRequest, "Invalid status value: "+*req.Status)
		return
	}
	l, ok := s.leads.Update(c.Param("id"), func(l *models.Lead) {
		setString(&l.FirstName, req.FirstName)
		setString(&l.LastName, req.LastName)
		setString(&l.Email, req.Email)
		setString(&l.Phone, req.Phone)
		setString(&l.Company, req.Company)
		setString(&l.Status, req.Status)
		setString(&l.Priority, req.Priority)
		setString(&l.Source, req.Source)
		l.UpdatedAt = s.timestamp()
	})
	if !ok {
		notFound(c, "Lead")
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) deleteLead(c *gin.Context) {
	id := c.Param("id")
	if !s.leads.Delete(id) {
		notFound(c, "Lead")
		return
	}
	deleted(c, id)
}

func (s *Server) assignLead(c *gin.Context) {
	var req struct {
		AssignedTo string `json:"assignedTo" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if _, ok := s.users.Get(req.AssignedTo); !ok {
		badRequest(c, "User not found")
		return
	}
	l, ok := s.leads.Update(c.Param("id"), func(l *models.Lead) {
		l.AssignedTo = req.AssignedTo
		l.UpdatedAt = s.timestamp()
	})
	if !ok {
		notFound(c, "Lead")
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) updateLeadStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if !leadStatuses[req.Status] {
		c.String(http.StatusBadRequest, "Invalid status value: "+req.Status)
		return
	}
	l, ok := s.leads.Update(c.Param("id"), func(l *models.Lead) {
		l.Status = req.Status
		l.UpdatedAt = s.timestamp()
	})
	if !ok {
		notFound(c, "Lead")
		return
	}
	c.JSON(http.StatusOK, l)
}

// =============================================================================
// Sites
// =============================================================================

func (s *Server) listSites(c *gin.Context) { c.JSON(http.StatusOK, s.sites.List(nil)) }

func (s *Server) getSite(c *gin.Context) {
	v, ok := s.sites.Get(c.Param("id"))
	if !ok {
		notFound(c, "Site")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) createSite(c *gin.Context) {
	var req models.CreateSiteRequest
	if !bindJSON(c, &req) {
		return
	}
	site := models.Site{
		ID:               newID(),
		Name:             req.Name,
		AddressLine1:     req.AddressLine1,
		AddressLine2:     req.AddressLine2,
		City:             req.City,
		State:            req.State,
		Country:          req.Country,
		PostalCode:       req.PostalCode,
		ParkingAvailable: req.ParkingAvailable,
		Description:      req.Description,
		CreatedAt:        s.timestamp(),
	}
	s.sites.Insert(site)
	c.JSON(http.StatusCreated, site)
}

func (s *Server) updateSite(c *gin.Context) {
	var req models.UpdateSiteRequest
	if !bindJSON(c, &req) {
		return
	}
	v, ok := s.sites.Update(c.Param("id"), func(v *models.Site) {
		setString(&v.Name, req.Name)
		setString(&v.AddressLine1, req.AddressLine1)
		setString(&v.AddressLine2, req.AddressLine2)
		setString(&v.City, req.City)
		setString(&v.State, req.State)
		setString(&v.Country, req.Country)
		setString(&v.PostalCode, req.PostalCode)
		setString(&v.Description, req.Description)
		if req.ParkingAvailable != nil {
			v.ParkingAvailable = *req.ParkingAvailable
		}
	})
	if !ok {
		notFound(c, "Site")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) deleteSite(c *gin.Context) {
	id := c.Param("id")
	if len(s.buildingsOf(id)) > 0 {
		conflict(c, "Site has buildings and cannot be deleted")
		return
	}
	if !s.sites.Delete(id) {
		notFound(c, "Site")
		return
	}
	deleted(c, id)
}

func (s *Server) listSiteBuildings(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.sites.Get(id); !ok {
		notFound(c, "Site")
		return
	}
	c.JSON(http.StatusOK, s.buildingsOf(id))
}

func (s *Server) buildingsOf(siteID string) []models.Building {
	return s.buildings.List(func(b models.Building) bool { return b.SiteID == siteID })
}

// =============================================================================
// Buildings
// =============================================================================

func (s *Server) listBuildings(c *gin.Context) { c.JSON(http.StatusOK, s.buildings.List(nil)) }

func (s *Server) getBuilding(c *gin.Context) {
	b, ok := s.buildings.Get(c.Param("id"))
	if !ok {
		notFound(c, "Building")
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) createBuilding(c *gin.Context) {
	var req models.CreateBuildingRequest
	if !bindJSON(c, &req) {
		return
	}
	site, ok := s.sites.Get(req.SiteID)
	if !ok {
		badRequest(c, "Site not found")
		return
	}
	b := models.Building{
		ID:           newID(),
		Name:         req.Name,
		FloorCount:   req.FloorCount,
		TotalAreaSqm: req.TotalAreaSqm,
		SiteID:       site.ID,
		SiteName:     site.Name,
		CreatedAt:    s.timestamp(),
	}
	s.buildings.Insert(b)
	s.sites.Update(site.ID, func(v *models.Site) { v.BuildingCount++ })
	c.JSON(http.StatusCreated, b)
}

func (s *Server) updateBuilding(c *gin.Context) {
	var req models.UpdateBuildingRequest
	if !bindJSON(c, &req) {
		return
	}
	var site models.Site
	if req.SiteID != nil {
		var ok bool
		if site, ok = s.sites.Get(*req.SiteID); !ok {
			badRequest(c, "Site not found")
			return
		}
	}
	b, ok := s.buildings.Update(c.Param("id"), func(b *models.Building) {
		setString(&b.Name, req.Name)
		if req.FloorCount != nil {
			b.FloorCount = *req.FloorCount
		}
		if req.TotalAreaSqm != nil {
			b.TotalAreaSqm = *req.TotalAreaSqm
		}
		if req.SiteID != nil {
			b.SiteID, b.SiteName = site.ID, site.Name
		}
	})
	if !ok {
		notFound(c, "Building")
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBuilding(c *gin.Context) {
	id := c.Param("id")
	if units := s.units.List(func(u models.Unit) bool { return u.BuildingID == id }); len(units) > 0 {
		conflict(c, "Building has units and cannot be deleted")
		return
	}
	b, ok := s.buildings.Get(id)
	if !ok || !s.buildings.Delete(id) {
		notFound(c, "Building")
		return
	}
	s.sites.Update(b.SiteID, func(v *models.Site) {
		if v.BuildingCount > 0 {
			v.BuildingCount--
		}
	})
	deleted(c, id)
}

// =============================================================================
// Units
// =============================================================================

func (s *Server) listUnits(c *gin.Context) {
	status, typ, buildingID := c.Query("status"), c.Query("type"), c.Query("buildingId")
	c.JSON(http.StatusOK, s.units.List(func(u models.Unit) bool {
		return (status == "" || strings.EqualFold(u.Status, status)) &&
			(typ == "" || strings.EqualFold(u.Type, typ)) &&
			(buildingID == "" || u.BuildingID == buildingID)
	}))
}

func (s *Server) getUnit(c *gin.Context) {
	u, ok := s.units.Get(c.Param("id"))
	if !ok {
		notFound(c, "Unit")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) createUnit(c *gin.Context) {
	var req models.CreateUnitRequest
	if !bindJSON(c, &req) {
		return
	}
	if !unitStatuses[req.Status] {
		c.String(http.StatusBadRequest, "Invalid status value: "+req.Status)
		return
	}
	b, ok := s.buildings.Get(req.BuildingID)
	if !ok {
		badRequest(c, "Building not found")
		return
	}
	unit := models.Unit{
		ID:           newID(),
		UnitNumber:   req.UnitNumber,
		Type:         req.Type,
		Floor:        req.Floor,
		AreaSqm:      req.AreaSqm,
		ParkingSlots: req.ParkingSlots,
		Price:        req.Price,
		Status:       req.Status,
		BuildingID:   b.ID,
		BuildingName: b.Name,
		CreatedAt:    s.timestamp(),
	}
	if req.OwnerID != "" {
		o, ok := s.owners.Get(req.OwnerID)
		if !ok {
			badRequest(c, "Owner not found")
			return
		}
		unit.OwnerID, unit.OwnerName = o.ID, o.Name
	}
	s.units.Insert(unit)
	c.JSON(http.StatusCreated, unit)
}

func (s *Server) updateUnit(c *gin.Context) {
	var req models.UpdateUnitRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Status != nil && !unitStatuses[*req.Status] {
		c.String(http.StatusBadRequest, "Invalid status value: "+*req.Status)
		return
	}
	u, ok := s.units.Update(c.Param("id"), func(u *models.Unit) {
		setString(&u.UnitNumber, req.UnitNumber)
		setString(&u.Type, req.Type)
		setString(&u.Status, req.Status)
		setString(&u.BuildingID, req.BuildingID)
		setString(&u.OwnerID, req.OwnerID)
		if req.Floor != nil {
			u.Floor = *req.Floor
		}
		if req.AreaSqm != nil {
			u.AreaSqm = *req.AreaSqm
		}
		if req.ParkingSlots != nil {
			u.ParkingSlots = *req.ParkingSlots
		}
		if req.Price != nil {
			u.Price = *req.Price
		}
	})
	if !ok {
		notFound(c, "Unit")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) updateUnitStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if !unitStatuses[req.Status] {
		c.String(http.StatusBadRequest, "Invalid status value: "+req.Status)
		return
	}
	u, ok := s.units.Update(c.Param("id"), func(u *models.Unit) { u.Status = req.Status })
	if !ok {
		notFound(c, "Unit")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) assignUnitOwner(c *gin.Context) {
	var req struct {
		OwnerID string `json:"ownerId" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	o, ok := s.owners.Get(req.OwnerID)
	if !ok {
		badRequest(c, "Owner not found")
		return
	}
	u, ok := s.units.Update(c.Param("id"), func(u *models.Unit) {
		u.OwnerID, u.OwnerName = o.ID, o.Name
	})
	if !ok {
		notFound(c, "Unit")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUnit(c *gin.Context) {
	id := c.Param("id")
	if !s.units.Delete(id) {
		notFound(c, "Unit")
		return
	}
	deleted(c, id)
}

// =============================================================================
// Owners
// =============================================================================

func (s *Server) listOwners(c *gin.Context) { c.JSON(http.StatusOK, s.owners.List(nil)) }

func (s *Server) getOwner(c *gin.Context) {
	o, ok := s.owners.Get(c.Param("id"))
	if !ok {
		notFound(c, "Owner")
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) createOwner(c *gin.Context) {
	var req models.CreateOwnerRequest
	if !bindJSON(c, &req) {
		return
	}
	o := models.Owner{
		ID:            newID(),
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		TaxNumber:     req.TaxNumber,
		Notes:         req.Notes,
		CreatedAt:     s.timestamp(),
	}
	s.owners.Insert(o)
	c.JSON(http.StatusCreated, o)
}

func (s *Server) updateOwner(c *gin.Context) {
	var req models.UpdateOwnerRequest
	if !bindJSON(c, &req) {
		return
	}
	o, ok := s.owners.Update(c.Param("id"), func(o *models.Owner) {
		setString(&o.Name, req.Name)
		setString(&o.ContactPerson, req.ContactPerson)
		setString(&o.Email, req.Email)
		setString(&o.Phone, req.Phone)
		setString(&o.Address, req.Address)
		setString(&o.TaxNumber, req.TaxNumber)
		setString(&o.Notes, req.Notes)
	})
	if !ok {
		notFound(c, "Owner")
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) deleteOwner(c *gin.Context) {
	id := c.Param("id")
	if owned := s.units.List(func(u models.Unit) bool { return u.OwnerID == id }); len(owned) > 0 {
		conflict(c, "Owner has units assigned and cannot be deleted")
		return
	}
	if !s.owners.Delete(id) {
		notFound(c, "Owner")
		return
	}
	deleted(c, id)
}
