// internal/core/validation.go
package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/nebula-query-gateway/internal/domain"
)

// RequiredFields lists the mandatory /query keys in the order they are checked.
var RequiredFields = []string{"sql", "host", "database", "user", "password"}

// structValidator reads the same `binding` tags gin uses.
var structValidator = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

// ValidateQueryPayload turns a raw /query body into a QueryRequest.
// Required keys are checked in RequiredFields order and the first absent key
// is reported; presence is what counts, an empty string passes.
func ValidateQueryPayload(body []byte) (domain.QueryRequest, error) {
	var req domain.QueryRequest

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return req, ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return req, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if dec.More() {
		return req, fmt.Errorf("%w: unexpected data after JSON value", ErrMalformedBody)
	}

	var fields map[string]any
	switch v := payload.(type) {
	case nil:
		return req, ErrEmptyBody
	case []any:
		if len(v) == 0 {
			return req, ErrEmptyBody
		}
		return req, ErrMalformedBody
	case map[string]any:
		if len(v) == 0 {
			return req, ErrEmptyBody
		}
		fields = v
	default:
		return req, ErrMalformedBody
	}

	for _, name := range RequiredFields {
		if _, ok := fields[name]; !ok {
			return req, &MissingFieldError{Field: name}
		}
	}

	targets := map[string]*string{
		"sql":      &req.SQL,
		"host":     &req.Host,
		"database": &req.Database,
		"user":     &req.User,
		"password": &req.Password,
	}
	for _, name := range RequiredFields {
		s, ok := fields[name].(string)
		if !ok {
			return req, fmt.Errorf("%w: '%s' must be a string", ErrInvalidField, name)
		}
		*targets[name] = s
	}

	port, err := parsePort(fields["port"])
	if err != nil {
		return req, err
	}
	req.Port = port

	if err := structValidator.Struct(req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	return req, nil
}

func parsePort(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return domain.DefaultMySQLPort, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: 'port' must be an integer", ErrInvalidField)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: 'port' must be an integer", ErrInvalidField)
	}
}
