package service

import (
	"fmt"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resumeSchemaJSON mirrors the structure requested in the extraction prompt.
// Types only; the model is allowed to omit fields it could not find.
const resumeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "email": {"type": "array", "items": {"type": "string"}},
    "mobile": {"type": "array", "items": {"type": "string"}},
    "address": {
      "type": "object",
      "properties": {
        "city": {"type": "string"},
        "state": {"type": "string"},
        "country": {"type": "string"}
      }
    },
    "skills": {"type": "array", "items": {"type": "string"}},
    "companies": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "company_name": {"type": "string"},
          "designation": {"type": "string"},
          "is_current": {"type": "boolean"},
          "start_date": {"$ref": "#/$defs/yearMonth"},
          "end_date": {"$ref": "#/$defs/yearMonth"}
        }
      }
    },
    "linkedin_url": {"type": "string"},
    "github_url": {"type": "string"},
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "college_name": {"type": "string"},
          "start_year": {"type": "string"},
          "end_year": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "certifications": {"type": "array", "items": {"type": "string"}},
    "profile_name": {"type": "string"},
    "achievements": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "year": {"type": "string"},
          "title": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    }
  },
  "$defs": {
    "yearMonth": {
      "type": "object",
      "properties": {
        "year": {"type": "string"},
        "month": {"type": "string"}
      }
    }
  }
}`

var resumeSchema = jsonschema.MustCompileString("resume.json", resumeSchemaJSON)

// validateResumeInfo checks the extracted mapping against the resume schema.
func validateResumeInfo(info domain.ExtractedInfo) error {
	if err := resumeSchema.Validate(map[string]interface{}(info)); err != nil {
		return fmt.Errorf("resume schema: %w", err)
	}
	return nil
}
