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
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/realestatecrm/crmgateway/internal/models"
)

var (
	emptyCollection = json.RawMessage(`[]`)
	null            = json.RawMessage(`null`)
)

// Resolve returns the substitute payload for a failed GET.
//
// # Description
//
// Collections resolve to the whole canned collection, unit collections
// honoring the status, type and buildingId query filters. Items resolve to
// the record with the captured id, or JSON null. Paths that match no rule
// resolve to an empty array.
//
// # Inputs
//
//   - path: Request path relative to the API base, query string allowed.
//   - query: Query parameters sent with the request.
//
// # Outputs
//
//   - json.RawMessage: Always valid JSON.
func (d *Dataset) Resolve(path string, query url.Values) json.RawMessage {
	route, ok := Match(path)
	if !ok {
		return emptyCollection
	}

	if route.Shape == ShapeBySite {
		return mustMarshal(d.BuildingsBySite(route.ID))
	}

	if route.Shape == ShapeCollection {
		switch route.Resource {
		case ResourceLeads:
			return mustMarshal(d.Leads())
		case ResourceUsers:
			return mustMarshal(d.Users())
		case ResourceSites:
			return mustMarshal(d.Sites())
		case ResourceBuildings:
			return mustMarshal(d.Buildings())
		case ResourceUnits:
			return mustMarshal(d.Units(models.UnitFilter{
				Status:     query.Get("status"),
				Type:       query.Get("type"),
				BuildingID: query.Get("buildingId"),
			}))
		case ResourceOwners:
			return mustMarshal(d.Owners())
		}
		return emptyCollection
	}

	var record any
	switch route.Resource {
	case ResourceLeads:
		record = d.Lead(route.ID)
	case ResourceUsers:
		record = d.User(route.ID)
	case ResourceSites:
		record = d.Site(route.ID)
	case ResourceBuildings:
		record = d.Building(route.ID)
	case ResourceUnits:
		record = d.Unit(route.ID)
	case ResourceOwners:
		record = d.Owner(route.ID)
	}
	return mustMarshal(record)
}

// Synthesize builds the success envelope returned for a failed write.
//
// # Description
//
// The submitted body is echoed when it is a JSON object, then id, createdAt
// and success are set over it. POST always gets a fresh id. Other verbs
// keep the id from the path when one is present so the caller sees the
// record it addressed.
//
// # Inputs
//
//   - method: HTTP verb of the failed request.
//   - path: Request path relative to the API base.
//   - body: The request body as sent, or nil.
//   - now: Creation timestamp.
//
// # Outputs
//
//   - json.RawMessage: A JSON object with at least id, createdAt, success.
//
// # Limitations
//
//   - Fields the backend would derive (status defaults, joined names) are
//     absent unless the caller submitted them.
func Synthesize(method, path string, body json.RawMessage, now time.Time) json.RawMessage {
	envelope := map[string]any{}
	if len(body) > 0 {
		var submitted map[string]any
		if err := json.Unmarshal(body, &submitted); err == nil {
			for k, v := range submitted {
				envelope[k] = v
			}
		}
	}

	id := ""
	if method != http.MethodPost {
		if route, ok := Match(path); ok {
			id = route.ID
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	envelope["id"] = id
	envelope["createdAt"] = now.UTC().Format(time.RFC3339Nano)
	envelope["success"] = true
	return mustMarshal(envelope)
}

// mustMarshal encodes values that are known to be encodable. A nil pointer
// encodes as null.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return null
	}
	return data
}
