// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/realestatecrm/crmgateway/internal/gateway"
	"github.com/realestatecrm/crmgateway/internal/models"
	"github.com/realestatecrm/crmgateway/internal/transport"
	"github.com/realestatecrm/crmgateway/pkg/ux"
)

var errNotFound = errors.New("record not found")

// =============================================================================
// GENERIC COMMAND BUILDERS
// =============================================================================

// listCmd builds a "list" subcommand that renders a table.
func listCmd[T any](opts *rootOptions, short string, headers []string, row func(T) []string,
	fetch func(ctx context.Context, a *app, args []string) (gateway.Result[[]T], error)) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   short,
		Args:    cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			res, err := fetch(ctx, a, args)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(res.Value))
			for _, v := range res.Value {
				rows = append(rows, row(v))
			}
			a.printer.Table(headers, rows)
			noteSource(a.printer, res.Source, len(rows))
			return nil
		}),
	}
}

// getCmd builds a "get <id>" subcommand that renders key/value pairs.
func getCmd[T any](opts *rootOptions, short string, pairs func(*T) [][2]string,
	fetch func(ctx context.Context, a *app, id string) (gateway.Result[*T], error)) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			res, err := fetch(ctx, a, args[0])
			if err != nil {
				return err
			}
			if res.Value == nil {
				return fmt.Errorf("%w: %s", errNotFound, args[0])
			}
			a.printer.KeyValues(pairs(res.Value))
			return nil
		}),
	}
}

// deleteCmd builds a "delete <id>" subcommand.
func deleteCmd(opts *rootOptions, noun string,
	del func(ctx context.Context, a *app, id string) (gateway.Result[models.MutationResult], error)) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a " + noun,
		Args:    cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			res, err := del(ctx, a, args[0])
			if err != nil {
				return err
			}
			reportWrite(a.printer, res.Source, fmt.Sprintf("Deleted %s %s", noun, args[0]))
			return nil
		}),
	}
}

func noteSource(p *ux.Printer, source transport.Source, n int) {
	if tag := ux.SourceTag(string(source)); tag != "" {
		p.Info(fmt.Sprintf("%d records (%s)", n, tag))
	}
}

// reportWrite confirms a mutation, flagging simulated ones.
func reportWrite(p *ux.Printer, source transport.Source, msg string) {
	if source == transport.SourceSimulated {
		p.Warning(msg + " (simulated, not saved)")
		return
	}
	p.Success(msg)
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func optional(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// LEADS
// =============================================================================

var leadHeaders = []string{"ID", "NAME", "EMAIL", "STATUS", "COMPANY", "ASSIGNED"}

func leadRow(l models.Lead) []string {
	return []string{l.ID, l.FirstName + " " + l.LastName, l.Email, l.Status, optional(l.Company), optional(l.AssignedTo)}
}

func leadPairs(l *models.Lead) [][2]string {
	return [][2]string{
		{"id", l.ID},
		{"name", l.FirstName + " " + l.LastName},
		{"email", l.Email},
		{"phone", optional(l.Phone)},
		{"company", optional(l.Company)},
		{"status", l.Status},
		{"priority", optional(l.Priority)},
		{"source", optional(l.Source)},
		{"assigned to", optional(l.AssignedTo)},
	}
}

func newLeadsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "leads", Short: "Manage sales leads"}
	cmd.AddCommand(
		listCmd(opts, "List leads", leadHeaders, leadRow,
			func(ctx context.Context, a *app, _ []string) (gateway.Result[[]models.Lead], error) {
				return a.api.Leads.GetAll(ctx)
			}),
		getCmd(opts, "Show a lead", leadPairs,
			func(ctx context.Context, a *app, id string) (gateway.Result[*models.Lead], error) {
				return a.api.Leads.GetByID(ctx, id)
			}),
		newLeadCreateCmd(opts),
		newLeadAssignCmd(opts),
		newLeadStatusCmd(opts),
		deleteCmd(opts, "lead", func(ctx context.Context, a *app, id string) (gateway.Result[models.MutationResult], error) {
			return a.api.Leads.Delete(ctx, id)
		}),
	)
	return cmd
}

func newLeadCreateCmd(opts *rootOptions) *cobra.Command {
	var req models.CreateLeadRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lead",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			res, err := a.api.Leads.Create(ctx, req)
			if err != nil {
				return err
			}
			id := res.Value.ID
			if id == "" {
				id = "(pending)"
			}
			reportWrite(a.printer, res.Source, "Created lead "+id)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Phone, "phone", "", "phone number")
	f.StringVar(&req.Company, "company", "", "company")
	f.StringVar(&req.Status, "status", "", "initial status")
	f.StringVar(&req.Priority, "priority", "", "priority")
	f.StringVar(&req.Source, "source", "", "where the lead came from")
	return cmd
}

func newLeadAssignCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <lead-id> <user-id>",
		Short: "Assign a lead to a user",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			res, err := a.api.Leads.Assign(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			reportWrite(a.printer, res.Source, fmt.Sprintf("Assigned lead %s to %s", args[0], args[1]))
			return nil
		}),
	}
}

func newLeadStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <lead-id> <status>",
		Short: "Change a lead's status",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			res, err := a.api.Leads.UpdateStatus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			reportWrite(a.printer, res.Source, fmt.Sprintf("Lead %s is now %s", args[0], args[1]))
			return nil
		}),
	}
}

// =============================================================================
// USERS
// =============================================================================

func newUsersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage CRM users"}
	cmd.AddCommand(
		listCmd(opts, "List users", []string{"ID", "USERNAME", "NAME", "EMAIL", "ROLE"},
			func(u models.User) []string {
				return []string{u.ID, u.Username, u.FirstName + " " + u.LastName, u.Email, string(u.Role)}
			},
			func(ctx context.Context, a *app, _ []string) (gateway.Result[[]models.User], error) {
				return a.api.Users.GetAll(ctx)
			}),
		getCmd(opts, "Show a user",
			func(u *models.User) [][2]string {
				return [][2]string{
					{"id", u.ID},
					{"username", u.Username},
					{"name", u.FirstName + " " + u.LastName},
					{"email", u.Email},
					{"role", string(u.Role)},
					{"compensation", optional(u.CompensationType)},
				}
			},
			func(ctx context.Context, a *app, id string) (gateway.Result[*models.User], error) {
				return a.api.Users.GetByID(ctx, id)
			}),
		deleteCmd(opts, "user", func(ctx context.Context, a *app, id string) (gateway.Result[models.MutationResult], error) {
			return a.api.Users.Delete(ctx, id)
		}),
	)
	return cmd
}

// =============================================================================
// PROPERTIES
// =============================================================================

var buildingHeaders = []string{"ID", "NAME", "SITE", "FLOORS", "AREA (SQM)"}

func buildingRow(b models.Building) []string {
	return []string{b.ID, b.Name, optional(b.SiteName), strconv.Itoa(b.FloorCount), money(b.TotalAreaSqm)}
}

func newSitesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "sites", Short: "Browse property sites"}

	buildings := listCmd(opts, "List buildings on a site", buildingHeaders, buildingRow,
		func(ctx context.Context, a *app, args []string) (gateway.Result[[]models.Building], error) {
			return a.api.Buildings.GetBySite(ctx, args[0])
		})
	buildings.Use = "buildings <site-id>"
	buildings.Aliases = nil
	buildings.Args = cobra.ExactArgs(1)

	cmd.AddCommand(
		listCmd(opts, "List sites", []string{"ID", "NAME", "CITY", "COUNTRY", "PARKING"},
			func(s models.Site) []string {
				return []string{s.ID, s.Name, s.City, s.Country, strconv.FormatBool(s.ParkingAvailable)}
			},
			func(ctx context.Context, a *app, _ []string) (gateway.Result[[]models.Site], error) {
				return a.api.Sites.GetAll(ctx)
			}),
		getCmd(opts, "Show a site",
			func(s *models.Site) [][2]string {
				return [][2]string{
					{"id", s.ID},
					{"name", s.Name},
					{"city", s.City},
					{"state", optional(s.State)},
					{"country", s.Country},
					{"postal code", optional(s.PostalCode)},
					{"parking", strconv.FormatBool(s.ParkingAvailable)},
					{"description", optional(s.Description)},
				}
			},
			func(ctx context.Context, a *app, id string) (gateway.Result[*models.Site], error) {
				return a.api.Sites.GetByID(ctx, id)
			}),
		buildings,
		deleteCmd(opts, "site", func(ctx context.Context, a *app, id string) (gateway.Result[models.MutationResult], error) {
			return a.api.Sites.Delete(ctx, id)
		}),
	)
	return cmd
}

func newBuildingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "buildings", Short: "Browse buildings"}
	cmd.AddCommand(
		listCmd(opts, "List buildings", buildingHeaders, buildingRow,
			func(ctx context.Context, a *app, _ []string) (gateway.Result[[]models.Building], error) {
				return a.api.Buildings.GetAll(ctx)
			}),
		getCmd(opts, "Show a building",
			func(b *models.Building) [][2]string {
				return [][2]string{
					{"id", b.ID},
					{"name", b.Name},
					{"site", b.SiteID},
					{"floors", strconv.Itoa(b.FloorCount)},
					{"area (sqm)", money(b.TotalAreaSqm)},
				}
			},
			func(ctx context.Context, a *app, id string) (gateway.Result[*models.Building], error) {
				return a.api.Buildings.GetByID(ctx, id)
			}),
		deleteCmd(opts, "building", func(ctx context.Context, a *app, id string) (gateway.Result[models.MutationResult], error) {
			return a.api.Buildings.Delete(ctx, id)
		}),
	)
	return cmd
}

func newUnitsCmd(opts *rootOptions) *cobra.Command {
	var filter models.UnitFilter

	list := listCmd(opts, "List units", []string{"ID", "UNIT", "TYPE", "FLOOR", "STATUS", "PRICE", "BUILDING"},
		func(u models.Unit) []string {
			return []string{u.ID, u.UnitNumber, u.Type, strconv.Itoa(u.Floor), u.Status, money(u.Price), optional(u.BuildingName)}
		},
		func(ctx context.Context, a *app, _ []string) (gateway.Result[[]models.Unit], error) {
			return a.api.Units.GetAll(ctx, filter)
		})
	list.Flags().StringVar(&filter.Status, "status", "", "filter by status")
	list.Flags().StringVar(&filter.Type, "type", "", "filter by unit type")
	list.Flags().StringVar(&filter.BuildingID, "building", "", "filter by building id")

	status := &cobra.Command{
		Use:   "status <unit-id> <status>",
		Short: "Change a unit's status",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			res, err := a.api.Units.UpdateStatus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			reportWrite(a.printer, res.Source, fmt.Sprintf("Unit %s is now %s", args[0], args[1]))
			return nil
		}),
	}

	assign := &cobra.Command{
		Use:   "assign-owner <unit-id> <owner-id>",
		Short: "Set a unit's owner",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			res, err := a.api.Units.AssignOwner(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			reportWrite(a.printer, res.Source, fmt.Sprintf("Unit %s now belongs to %s", args[0], args[1]))
			return nil
		}),
	}

	cmd := &cobra.Command{Use: "units", Short: "Browse and update units"}
	cmd.AddCommand(
		list,
		getCmd(opts, "Show a unit",
			func(u *models.Unit) [][2]string {
				return [][2]string{
					{"id", u.ID},
					{"unit", u.UnitNumber},
					{"type", u.Type},
					{"floor", strconv.Itoa(u.Floor)},
					{"area (sqm)", money(u.AreaSqm)},
					{"parking slots", strconv.Itoa(u.ParkingSlots)},
					{"price", money(u.Price)},
					{"status", u.Status},
					{"building", u.BuildingID},
					{"owner", optional(u.OwnerName)},
				}
			},
			func(ctx context.Context, a *app, id string) (gateway.Result[*models.Unit], error) {
				return a.api.Units.GetByID(ctx, id)
			}),
		status,
		assign,
		deleteCmd(opts, "unit", func(ctx context.Context, a *app, id string) (gateway.Result[models.MutationResult], error) {
			return a.api.Units.Delete(ctx, id)
		}),
	)
	return cmd
}

func newOwnersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "owners", Short: "Browse unit owners"}
	cmd.AddCommand(
		listCmd(opts, "List owners", []string{"ID", "NAME", "CONTACT", "EMAIL", "PHONE"},
			func(o models.Owner) []string {
				return []string{o.ID, o.Name, o.ContactPerson, o.Email, o.Phone}
			},
			func(ctx context.Context, a *app, _ []string) (gateway.Result[[]models.Owner], error) {
				return a.api.Owners.GetAll(ctx)
			}),
		getCmd(opts, "Show an owner",
			func(o *models.Owner) [][2]string {
				return [][2]string{
					{"id", o.ID},
					{"name", o.Name},
					{"contact", o.ContactPerson},
					{"email", o.Email},
					{"phone", o.Phone},
					{"address", optional(o.Address)},
					{"tax number", optional(o.TaxNumber)},
				}
			},
			func(ctx context.Context, a *app, id string) (gateway.Result[*models.Owner], error) {
				return a.api.Owners.GetByID(ctx, id)
			}),
		deleteCmd(opts, "owner", func(ctx context.Context, a *app, id string) (gateway.Result[models.MutationResult], error) {
			return a.api.Owners.Delete(ctx, id)
		}),
	)
	return cmd
}
