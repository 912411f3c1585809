package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// BasePath is where the dashboard API is mounted.
const BasePath = "/dashboard/api"

// GenerateDashboardSpec generates the OpenAPI 3.1 document for the staff
// dashboard API served under BasePath.
func GenerateDashboardSpec(baseURL, version string) *openapi3.T {
	if version == "" {
		version = "1.0.0"
	}
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Staff Portal API",
			Description: "Ban management, playtime tracking and audit logs for game staff. Requests are authenticated by the moderation backend's session cookie.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["sessionCookie"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "cookie",
			Name: "connect.sid",
		},
	}
	doc.Security = openapi3.SecurityRequirements{
		{"sessionCookie": {}},
	}

	addComponentSchemas(doc)
	doc.Paths = openapi3.NewPaths()
	addSessionPaths(doc)
	addBanPaths(doc)
	addListPaths(doc)
	addUtilityPaths(doc)

	return doc
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addSessionPaths(doc *openapi3.T) {
	doc.Paths.Set(BasePath+"/me", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"session"},
			Summary:     "Current staff member",
			OperationID: "get_me",
			Responses:   newResponses("200", "Signed-in staff member", ref("StaffMember")),
		},
	})
	doc.Paths.Set(BasePath+"/ranks", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"session"},
			Summary:     "Staff ranks and colours",
			OperationID: "list_ranks",
			Responses:   newResponses("200", "Rank table", arrayOf(ref("Rank"))),
		},
	})
}

func addBanPaths(doc *openapi3.T) {
	doc.Paths.Set(BasePath+"/bans", &openapi3.PathItem{
		Get: listOperation("bans", "list_bans", "List bans", "Ban", openapi3.Parameters{
			queryParam("search", "Username search.", openapi3.NewStringSchema()),
			pageParam(),
			queryParam("unappealable", "Only show unappealable bans.", openapi3.NewBoolSchema()),
		}),
		Post: &openapi3.Operation{
			Tags:        []string{"bans"},
			Summary:     "Create a ban",
			OperationID: "create_ban",
			RequestBody: jsonBody("New-ban form", ref("CreateBan")),
			Responses:   mutationResponses("201", "Ban created", ref("PostBanRequest")),
		},
	})

	userParam := &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("user").
			WithDescription("Roblox username.").
			WithSchema(openapi3.NewStringSchema()),
	}

	doc.Paths.Set(BasePath+"/bans/{user}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{userParam},
		Patch: &openapi3.Operation{
			Tags:        []string{"bans"},
			Summary:     "Modify a ban",
			OperationID: "modify_ban",
			RequestBody: jsonBody("Modify-ban form", ref("ModifyBan")),
			Responses:   mutationResponses("200", "Ban modified", ref("ModifyBanRequest")),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"bans"},
			Summary:     "Remove a ban",
			OperationID: "remove_ban",
			Responses:   mutationResponses("200", "Ban removed", ref("Message")),
		},
	})

	doc.Paths.Set(BasePath+"/bans/{user}/history", &openapi3.PathItem{
		Parameters: openapi3.Parameters{userParam},
		Get: &openapi3.Operation{
			Tags:        []string{"bans"},
			Summary:     "Ban history of a user",
			OperationID: "get_ban_history",
			Responses:   newResponses("200", "Ban history", ref("BanHistory")),
		},
	})

	doc.Paths.Set(BasePath+"/users/{user}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{userParam},
		Get: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "Resolve a Roblox username",
			OperationID: "lookup_user",
			Responses:   newResponses("200", "User preview", ref("UserPreview")),
		},
	})
}

func addListPaths(doc *openapi3.T) {
	days := openapi3.NewIntegerSchema()
	days.Enum = []any{7, 30}

	doc.Paths.Set(BasePath+"/playtime", &openapi3.PathItem{
		Get: listOperation("playtime", "list_playtime", "Staff playtime leaderboard", "PlaytimeEntry", openapi3.Parameters{
			queryParam("search", "Username search.", openapi3.NewStringSchema()),
			pageParam(),
			queryParam("days", "Window in days (7 or 30, default 30).", days),
			queryParam("rank", "Only show this group rank id.", openapi3.NewIntegerSchema()),
		}),
	})

	action := openapi3.NewStringSchema()
	action.Enum = []any{"ban", "modify", "unban"}

	doc.Paths.Set(BasePath+"/audit", &openapi3.PathItem{
		Get: listOperation("audit", "list_audit_logs", "Moderation audit log", "AuditEntry", openapi3.Parameters{
			queryParam("admin", "Staff username.", openapi3.NewStringSchema()),
			queryParam("target", "Player username.", openapi3.NewStringSchema()),
			queryParam("action", "Action type.", action),
			pageParam(),
		}),
	})
}

func addUtilityPaths(doc *openapi3.T) {
	avatars := &openapi3.Schema{
		Type:                 &openapi3.Types{"object"},
		Description:          "Headshot URL by user id. Unresolved ids are absent.",
		AdditionalProperties: openapi3.AdditionalProperties{Schema: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}},
	}
	doc.Paths.Set(BasePath+"/avatars", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "Resolve user headshots",
			OperationID: "get_avatars",
			Parameters: openapi3.Parameters{
				queryParam("ids", "Comma-separated user ids, at most 500.", openapi3.NewStringSchema()),
			},
			Responses: newResponses("200", "Resolved headshots", &openapi3.SchemaRef{Value: avatars}),
		},
	})

	doc.Paths.Set(BasePath+"/expiry", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"bans"},
			Summary:     "Preview a ban duration",
			OperationID: "preview_expiry",
			Parameters: openapi3.Parameters{
				queryParam("text", "Duration such as \"3 days\", \"2m\" or \"1 year\". Anything else is permanent.", openapi3.NewStringSchema()),
			},
			Responses: newResponses("200", "Resolved expiry", ref("Expiry")),
		},
	})
}

// ─── Schema Builders ────────────────────────────────────────────────────────

func addComponentSchemas(doc *openapi3.T) {
	s := doc.Components.Schemas

	s["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							"context": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
						},
					},
				},
				"redirect": str("Where to send the browser, set when the session is missing."),
			},
		},
	}
	s["Message"] = object(nil, openapi3.Schemas{"message": str("Text to show staff.")})

	s["StaffMember"] = object(nil, openapi3.Schemas{
		"rankid":    integer("int32", "Group rank id."),
		"rank":      str("Group rank name."),
		"username":  str("Roblox username."),
		"robloxid":  integer("int64", ""),
		"discordid": str(""),
		"color":     str("Rank colour."),
		"avatar":    str("Headshot URL."),
	})
	s["Rank"] = object(nil, openapi3.Schemas{
		"id":    integer("int32", ""),
		"name":  str(""),
		"color": str(""),
	})

	expires := integer("int64", "Unix seconds; null for a permanent ban.")
	expires.Value.Nullable = true
	appealable := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:        &openapi3.Types{"boolean"},
		Nullable:    true,
		Description: "Null is treated as appealable.",
	}}
	s["Ban"] = object(nil, openapi3.Schemas{
		"ban_id":         integer("int64", ""),
		"banned_user":    str(""),
		"banned_user_id": integer("int64", ""),
		"banned_by":      str(""),
		"reason":         str(""),
		"logsLink":       str(""),
		"expires":        expires,
		"logged_at":      integer("int64", "Unix seconds."),
		"appealable":     appealable,
	})
	s["BanHistory"] = object(nil, openapi3.Schemas{
		"username": str(""),
		"userId":   integer("int64", ""),
		"avatar":   str(""),
		"isBanned": &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
		"bans":     arrayOf(ref("Ban")),
	})
	s["UserPreview"] = object(nil, openapi3.Schemas{
		"username": str(""),
		"userId":   integer("int64", ""),
		"avatar":   str(""),
	})
	s["PlaytimeEntry"] = object(nil, openapi3.Schemas{
		"userid":    integer("int64", ""),
		"username":  str(""),
		"role":      str(""),
		"sum(time)": integer("int64", "Seconds played in the window."),
	})

	name := str("")
	name.Value.Nullable = true
	s["AuditEntry"] = object(nil, openapi3.Schemas{
		"action_id":          integer("int64", ""),
		"admin_roblox_id":    integer("int64", ""),
		"admin_roblox_name":  name,
		"action":             str("ban, modify or unban."),
		"timestamp":          integer("int64", "Unix seconds."),
		"player_roblox_id":   integer("int64", ""),
		"player_roblox_name": name,
	})

	s["CreateBan"] = object([]string{"username", "logsLink"}, openapi3.Schemas{
		"username":     str("Roblox username."),
		"reasons":      arrayOf(str("Preset: Griefing, Exploiting, Trolling, Toxicity or TOS Violation.")),
		"additional":   str("Free-text reason appended after the presets."),
		"logsLink":     str(""),
		"duration":     str("Duration text; empty or unrecognised means permanent."),
		"unappealable": &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
	})
	s["ModifyBan"] = object([]string{"reason"}, openapi3.Schemas{
		"reason":   str(""),
		"duration": str("Duration text; empty or unrecognised means permanent."),
	})
	s["PostBanRequest"] = object(nil, openapi3.Schemas{
		"user":       str(""),
		"reason":     str(""),
		"logsLink":   str(""),
		"expiresIn":  expires,
		"appealable": &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
	})
	s["ModifyBanRequest"] = object(nil, openapi3.Schemas{
		"reason":     str(""),
		"expiration": expires,
	})
	s["Expiry"] = object(nil, openapi3.Schemas{
		"text":        str(""),
		"permanent":   &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
		"expires":     expires,
		"description": str("\"Permanent\" or a date such as \"January 2nd, 2006\"."),
	})
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: items}}
}

func object(required []string, props openapi3.Schemas) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}}
}

func str(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}}
}

func integer(format, desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: format, Description: desc}}
}

// pageSchema wraps a row schema in the {rows, page, pageCount} envelope.
func pageSchema(row string) *openapi3.SchemaRef {
	return object([]string{"rows", "page", "pageCount"}, openapi3.Schemas{
		"rows":      arrayOf(ref(row)),
		"page":      integer("int32", "Page returned, starting at 1."),
		"pageCount": integer("int32", "Number of pages, at least 1."),
	})
}

// ─── Operation Builders ─────────────────────────────────────────────────────

// listOperation generates a GET operation for a paged list. Failed fetches
// still answer 200 with an empty first page.
func listOperation(tag, id, summary, row string, params openapi3.Parameters) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		Description: "Returns one page. If the backend fails the response is an empty first page.",
		OperationID: id,
		Parameters:  params,
		Responses:   newResponses("200", summary, pageSchema(row)),
	}
}

func queryParam(name, desc string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).WithDescription(desc).WithSchema(schema),
	}
}

func pageParam() *openapi3.ParameterRef {
	return queryParam("page", "Page number, starting at 1.", openapi3.NewIntegerSchema())
}

func jsonBody(desc string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: desc,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// newResponses builds a Responses map with a success response and standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := ref("ErrorResponse")
	for code, desc := range map[string]string{
		"400": "Bad request",
		"401": "Not signed in; follow redirect",
		"404": "Not found",
		"502": "Moderation backend unavailable",
	} {
		d := desc
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

// mutationResponses adds the backend rejection response: the backend's own
// status code with a {"message"} body.
func mutationResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := newResponses(statusCode, description, schema)
	desc := "Rejected by the moderation backend; status mirrors the backend"
	responses.Set("default", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithJSONSchemaRef(ref("Message")),
		},
	})
	return responses
}
