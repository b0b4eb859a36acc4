package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ProfileSchema describes a serialized farmer profile. Only the farmer record is required; missing
// collections are scored with neutral defaults. Timestamps are plain strings because unparseable values
// are treated as absent downstream.
const ProfileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["farmers"],
  "definitions": {
    "id": {"type": "string"},
    "timestamp": {"type": ["string", "null"]},
    "amount": {"type": "number"}
  },
  "properties": {
    "farmers": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"$ref": "#/definitions/id"},
        "age": {"type": "integer"},
        "created_at": {"$ref": "#/definitions/timestamp"},
        "highest_education": {"type": "string"},
        "gender": {"type": "string"},
        "mobile_wallet_balance": {"$ref": "#/definitions/amount"},
        "bvn": {"type": "string"},
        "other_sources_of_income": {"type": "string"},
        "address_id": {"type": "string"}
      }
    },
    "farmer_next_of_kin": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"$ref": "#/definitions/id"},
          "farmer_id": {"type": "string"},
          "full_name": {"type": "string"}
        }
      }
    },
    "farms": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"$ref": "#/definitions/id"},
          "farmer_id": {"type": "string"},
          "size": {"$ref": "#/definitions/amount"},
          "start_date": {"$ref": "#/definitions/timestamp"},
          "number_of_harvests": {"type": "integer"},
          "address_id": {"type": "string"}
        }
      }
    },
    "farm_production": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"$ref": "#/definitions/id"},
          "farm_id": {"type": "string"},
          "type": {"type": "string"},
          "expected_yield": {"$ref": "#/definitions/amount"},
          "expected_unit_profit": {"$ref": "#/definitions/amount"}
        }
      }
    },
    "address": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"$ref": "#/definitions/id"},
          "geopolitical_zone": {"type": "string"},
          "latitude": {"type": ["number", "null"], "minimum": -90, "maximum": 90},
          "longitude": {"type": ["number", "null"], "minimum": -180, "maximum": 180}
        }
      }
    },
    "loan_application": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"$ref": "#/definitions/id"},
          "farmer_id": {"type": "string"},
          "amount_requested": {"$ref": "#/definitions/amount"},
          "existing_loans": {"type": "boolean"},
          "total_existing_loan_amount": {"$ref": "#/definitions/amount"},
          "status": {"type": "string"},
          "created_at": {"$ref": "#/definitions/timestamp"}
        }
      }
    },
    "loan_contract": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"$ref": "#/definitions/id"},
          "loan_application_id": {"type": "string"},
          "amount_disbursed": {"$ref": "#/definitions/amount"},
          "interest_rate": {"$ref": "#/definitions/amount"},
          "created_at": {"$ref": "#/definitions/timestamp"}
        }
      }
    },
    "loan_repayments": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"$ref": "#/definitions/id"},
          "loan_contract_id": {"type": "string"},
          "periodic_repayment_amount": {"$ref": "#/definitions/amount"},
          "interest_amount": {"$ref": "#/definitions/amount"},
          "created_at": {"$ref": "#/definitions/timestamp"},
          "date_paid": {"$ref": "#/definitions/timestamp"},
          "due_date": {"$ref": "#/definitions/timestamp"}
        }
      }
    },
    "transaction_history": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"$ref": "#/definitions/id"},
          "farmer_id": {"type": "string"},
          "transaction_data": {"type": ["object", "string", "null"]},
          "created_at": {"$ref": "#/definitions/timestamp"}
        }
      }
    }
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ProfileValidator checks documents against a compiled schema. It is safe for concurrent use.
type ProfileValidator struct {
	schema *gojsonschema.Schema
}

func NewProfileValidator() (*ProfileValidator, error) {
	return NewValidator(ProfileSchema)
}

// NewValidator compiles an arbitrary JSON schema document.
func NewValidator(schemaJSON string) (*ProfileValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &ProfileValidator{schema: schema}, nil
}

// Validate checks raw JSON. The error is non-nil only when data is not a JSON document.
func (v *ProfileValidator) Validate(data []byte) (*ValidationResult, error) {
	return v.validate(gojsonschema.NewBytesLoader(data))
}

// ValidateDocument checks an already decoded value such as a map from job variables.
func (v *ProfileValidator) ValidateDocument(doc interface{}) (*ValidationResult, error) {
	return v.validate(gojsonschema.NewGoLoader(doc))
}

func (v *ProfileValidator) validate(loader gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := v.schema.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   errorField(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errs,
	}, nil
}

// errorField names the offending property. Required errors are reported against the missing
// property rather than its parent.
func errorField(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		field = ""
	}
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if field == "" {
				return prop
			}
			return field + "." + prop
		}
	}
	if field == "" {
		return gojsonschema.STRING_ROOT_SCHEMA_PROPERTY
	}
	return field
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and anything nested under it.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
