package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError lists the problems found in one record.
type ValidationError struct {
	Entity   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

const hexColorPattern = `^#([0-9a-fA-F]{3}){1,2}$`

const schemaBase = "https://smartcalendar.local/schema/"

var recordSchemas = map[string]string{
	"category": `{
		"type": "object",
		"required": ["name", "colorHex", "isActive", "sortOrder"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"colorHex": {"type": "string", "pattern": "` + hexColorPattern + `"},
			"isActive": {"type": "boolean"},
			"sortOrder": {"type": "integer", "minimum": 0}
		}
	}`,
	"subcategory": `{
		"type": "object",
		"required": ["categoryId", "name", "isActive", "sortOrder"],
		"properties": {
			"categoryId": {"type": "string", "minLength": 1},
			"name": {"type": "string", "minLength": 1},
			"colorHex": {"type": ["string", "null"], "pattern": "` + hexColorPattern + `"},
			"isActive": {"type": "boolean"},
			"sortOrder": {"type": "integer", "minimum": 0}
		}
	}`,
	"event": `{
		"type": "object",
		"required": ["title", "categoryId", "startsAt", "endsAt", "allDay"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"categoryId": {"type": "string", "minLength": 1},
			"subcategoryId": {"type": ["string", "null"], "minLength": 1},
			"startsAt": {"type": "string", "format": "date-time"},
			"endsAt": {"type": "string", "format": "date-time"},
			"allDay": {"type": "boolean"},
			"location": {"type": "string"}
		}
	}`,
	"task": `{
		"type": "object",
		"required": ["title", "status", "priority"],
		"properties": {
			"eventId": {"type": ["string", "null"], "minLength": 1},
			"title": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"status": {"enum": ["TODO", "IN_PROGRESS", "BLOCKED", "DONE"]},
			"position": {"type": "integer", "minimum": 0},
			"priority": {"enum": ["LOW", "NORMAL", "HIGH", "URGENT"]},
			"dueDate": {"type": ["string", "null"], "format": "date-time"},
			"assigneeId": {"type": ["string", "null"]}
		}
	}`,
}

// Validator checks record shapes against the compiled schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles the record schemas.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	for name, src := range recordSchemas {
		if err := compiler.AddResource(schemaBase+name+".json", strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(recordSchemas))}
	for name := range recordSchemas {
		schema, err := compiler.Compile(schemaBase + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

func (v *Validator) Category(c Category) error {
	return v.check("category", c)
}

func (v *Validator) Subcategory(s Subcategory) error {
	return v.check("subcategory", s)
}

// Event also requires both timestamps and endsAt >= startsAt.
func (v *Validator) Event(e Event) error {
	err := v.check("event", e)

	var problems []string
	if e.StartsAt.IsZero() {
		problems = append(problems, "startsAt: is required")
	}
	if e.EndsAt.IsZero() {
		problems = append(problems, "endsAt: is required")
	}
	if e.EndsAt.Before(e.StartsAt) {
		problems = append(problems, "endsAt: must not be before startsAt")
	}
	return mergeProblems("event", err, problems)
}

func (v *Validator) Task(t Task) error {
	return v.check("task", t)
}

func (v *Validator) check(name string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s for validation: %w", name, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj any
	if err := dec.Decode(&obj); err != nil {
		return fmt.Errorf("failed to decode %s for validation: %w", name, err)
	}

	err = v.schemas[name].Validate(obj)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	result := &ValidationError{Entity: name}
	collectProblems(result, ve)
	return result
}

func collectProblems(result *ValidationError, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		field := strings.TrimPrefix(err.InstanceLocation, "/")
		if field == "" {
			field = result.Entity
		}
		result.Problems = append(result.Problems, fmt.Sprintf("%s: %s", field, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectProblems(result, cause)
	}
}

func mergeProblems(entity string, err error, problems []string) error {
	if err == nil && len(problems) == 0 {
		return nil
	}
	var ve *ValidationError
	if err != nil && !errors.As(err, &ve) {
		return err
	}
	if ve == nil {
		ve = &ValidationError{Entity: entity}
	}
	ve.Problems = append(ve.Problems, problems...)
	return ve
}
