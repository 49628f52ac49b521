// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fallback

import (
	"regexp"
	"strings"
)

// Resource names a canned collection.
type Resource string

const (
	ResourceLeads     Resource = "leads"
	ResourceUsers     Resource = "users"
	ResourceSites     Resource = "sites"
	ResourceBuildings Resource = "buildings"
	ResourceUnits     Resource = "units"
	ResourceOwners    Resource = "owners"
)

// Shape says how a matched path maps onto its resource.
type Shape int

const (
	// ShapeCollection is the whole collection, e.g. /leads.
	ShapeCollection Shape = iota

	// ShapeItem is one record addressed by a trailing id, e.g. /leads/{id}.
	ShapeItem

	// ShapeAction is a sub-resource action on one record, e.g.
	// /leads/{id}/status. Reads resolve to the record itself.
	ShapeAction

	// ShapeBySite is the buildings of one site.
	ShapeBySite
)

// Route is the result of matching a path.
type Route struct {
	Resource Resource
	Shape    Shape

	// ID is the record id captured from the path, empty for collections.
	ID string
}

type rule struct {
	pattern  *regexp.Regexp
	resource Resource
	shape    Shape
}

const seg = `([^/]+)`

// rules are evaluated in order; nested and id-suffixed patterns come before
// the collection pattern they extend. "register" is the one non-id
// segment under /users and is listed before the item rule.
var rules = []rule{
	{regexp.MustCompile(`^/properties/sites/` + seg + `/buildings$`), ResourceBuildings, ShapeBySite},
	{regexp.MustCompile(`^/properties/sites/` + seg + `$`), ResourceSites, ShapeItem},
	{regexp.MustCompile(`^/properties/sites$`), ResourceSites, ShapeCollection},

	{regexp.MustCompile(`^/properties/buildings/` + seg + `$`), ResourceBuildings, ShapeItem},
	{regexp.MustCompile(`^/properties/buildings$`), ResourceBuildings, ShapeCollection},

	{regexp.MustCompile(`^/properties/units/` + seg + `/(?:status|assign-owner)$`), ResourceUnits, ShapeAction},
	{regexp.MustCompile(`^/properties/units/` + seg + `$`), ResourceUnits, ShapeItem},
	{regexp.MustCompile(`^/properties/units$`), ResourceUnits, ShapeCollection},

	{regexp.MustCompile(`^/properties/owners/` + seg + `$`), ResourceOwners, ShapeItem},
	{regexp.MustCompile(`^/properties/owners$`), ResourceOwners, ShapeCollection},

	{regexp.MustCompile(`^/leads/` + seg + `/(?:status|assign)$`), ResourceLeads, ShapeAction},
	{regexp.MustCompile(`^/leads/` + seg + `$`), ResourceLeads, ShapeItem},
	{regexp.MustCompile(`^/leads$`), ResourceLeads, ShapeCollection},

	{regexp.MustCompile(`^/users/register$`), ResourceUsers, ShapeCollection},
	{regexp.MustCompile(`^/users/` + seg + `$`), ResourceUsers, ShapeItem},
	{regexp.MustCompile(`^/users$`), ResourceUsers, ShapeCollection},
}

// Match finds the first rule matching path. The query string and a
// trailing slash are ignored.
func Match(path string) (Route, bool) {
	path = normalizePath(path)
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		route := Route{Resource: r.resource, Shape: r.shape}
		if len(m) > 1 {
			route.ID = m[1]
		}
		return route, true
	}
	return Route{}, false
}

func normalizePath(path string) string {
	path, _, _ = strings.Cut(path, "?")
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
