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

// LeadService covers /leads.
type LeadService struct{ c *Client }

type leadAssignBody struct {
	AssignedTo string `json:"assignedTo" validate:"required"`
}

type leadStatusBody struct {
	Status string `json:"status" validate:"required,oneof=NEW CONTACTED QUALIFIED OPPORTUNITY CONTRACT CLOSED_WON CLOSED_LOST"`
}

// GetAll lists leads, falling back to the canned leads.
func (s *LeadService) GetAll(ctx context.Context) (gateway.Result[[]models.Lead], error) {
	return read(ctx, s.c, "/leads", nil, s.c.dataset().Leads())
}

// GetByID fetches one lead.
func (s *LeadService) GetByID(ctx context.Context, id string) (gateway.Result[*models.Lead], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[*models.Lead]{}, err
	}
	return read(ctx, s.c, "/leads/"+url.PathEscape(id), nil, s.c.dataset().Lead(id))
}

// Create posts a new lead.
func (s *LeadService) Create(ctx context.Context, req models.CreateLeadRequest) (gateway.Result[models.Lead], error) {
	return validatedWrite[models.Lead](ctx, s.c, http.MethodPost, "/leads", req, "Failed to create lead")
}

// Update puts the changed fields of a lead.
func (s *LeadService) Update(ctx context.Context, id string, req models.UpdateLeadRequest) (gateway.Result[models.Lead], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.Lead]{}, err
	}
	return validatedWrite[models.Lead](ctx, s.c, http.MethodPut, "/leads/"+url.PathEscape(id), req, "Failed to update lead")
}

// Delete removes a lead.
func (s *LeadService) Delete(ctx context.Context, id string) (gateway.Result[models.MutationResult], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.MutationResult]{}, err
	}
	return write[models.MutationResult](ctx, s.c, http.MethodDelete, "/leads/"+url.PathEscape(id), nil, "Failed to delete lead")
}

// Assign hands a lead to a user via PUT /leads/{id}/assign.
func (s *LeadService) Assign(ctx context.Context, leadID, userID string) (gateway.Result[models.Lead], error) {
	if err := requireID("leadId", leadID); err != nil {
		return gateway.Result[models.Lead]{}, err
	}
	return validatedWrite[models.Lead](ctx, s.c, http.MethodPut, "/leads/"+url.PathEscape(leadID)+"/assign",
		leadAssignBody{AssignedTo: userID}, "Failed to assign lead")
}

// UpdateStatus moves a lead through its pipeline via PATCH.
func (s *LeadService) UpdateStatus(ctx context.Context, leadID, status string) (gateway.Result[models.Lead], error) {
	if err := requireID("leadId", leadID); err != nil {
		return gateway.Result[models.Lead]{}, err
	}
	return validatedWrite[models.Lead](ctx, s.c, http.MethodPatch, "/leads/"+url.PathEscape(leadID)+"/status",
		leadStatusBody{Status: status}, "Failed to update lead status")
}
