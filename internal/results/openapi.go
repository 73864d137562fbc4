package results

import "github.com/JaimeStill/rapid/pkg/openapi"

// Schemas returns the component schemas referenced by Paths.
func Schemas() map[string]*openapi.Schema {
	str := &openapi.Schema{Type: "string"}
	nullable := func(typ, format string) *openapi.Schema {
		return &openapi.Schema{Type: typ, Format: format, Description: "null when unset"}
	}
	verdict := &openapi.Schema{Type: "string", Enum: []any{"pass", "fail"}}

	return map[string]*openapi.Schema{
		"Record": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                {Type: "string", Format: "uuid"},
				"review_result_id":  str,
				"review_job_id":     str,
				"check_id":          str,
				"result":            verdict,
				"confidence":        openapi.Bounds(0, 1),
				"review_type":       {Type: "string", Enum: []any{"PDF", "IMAGE"}},
				"explanation":       str,
				"short_explanation": str,
				"model_id":          nullable("string", ""),
				"total_cost":        nullable("number", ""),
				"payload":           {Type: "object", Description: "Full review result as delivered by the processor"},
				"overridden":        {Type: "boolean"},
				"verified_by":       nullable("string", ""),
				"verified_at":       nullable("string", "date-time"),
				"created_at":        {Type: "string", Format: "date-time"},
				"updated_at":        {Type: "string", Format: "date-time"},
			},
		},
		"RecordPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Record")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"VerifyCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"verified_by": {Type: "string", Description: "Ignored when the request is authenticated"},
			},
		},
		"OverrideCommand": {
			Type:     "object",
			Required: []string{"result"},
			Properties: map[string]*openapi.Schema{
				"result":      verdict,
				"explanation": str,
				"short_explanation": {
					Type:        "string",
					Description: "Truncated to 80 characters",
				},
			},
		},
	}
}

// Paths describes the /results routes relative to the module base path.
func Paths() map[string]*openapi.PathItem {
	id := openapi.PathParam("id", "uuid", "Record ID")
	tags := []string{"Results"}

	return map[string]*openapi.PathItem{
		"/results": {
			Get: &openapi.Operation{
				Summary: "List review results",
				Tags:    tags,
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("page", "integer", "Page number (1-indexed)"),
					openapi.QueryParam("page_size", "integer", "Results per page"),
					openapi.QueryParam("sort", "string", "Comma-separated sort fields, prefix - for descending"),
					openapi.QueryParam("review_job_id", "string", "Filter by review job"),
					openapi.QueryParam("check_id", "string", "Filter by check item"),
					openapi.QueryParam("result", "string", "pass or fail"),
					openapi.QueryParam("review_type", "string", "PDF or IMAGE"),
					openapi.QueryParam("verified", "boolean", "Filter by verification state"),
				},
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("Page of results", "RecordPage"),
				},
			},
		},
		"/results/{id}": {
			Get: &openapi.Operation{
				Summary:    "Find a review result",
				Tags:       tags,
				Parameters: []*openapi.Parameter{id},
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("Review result", "Record"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
			Put: &openapi.Operation{
				Summary:     "Override the verdict of a review result",
				Tags:        tags,
				Parameters:  []*openapi.Parameter{id},
				RequestBody: openapi.JSONBody("OverrideCommand", true),
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("Updated result", "Record"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
			Delete: &openapi.Operation{
				Summary:    "Delete a review result",
				Tags:       tags,
				Parameters: []*openapi.Parameter{id},
				Responses: map[int]*openapi.Response{
					204: {Description: "Deleted"},
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/results/{id}/verify": {
			Post: &openapi.Operation{
				Summary:     "Confirm a review result",
				Tags:        tags,
				Parameters:  []*openapi.Parameter{id},
				RequestBody: openapi.JSONBody("VerifyCommand", false),
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("Verified result", "Record"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
	}
}
