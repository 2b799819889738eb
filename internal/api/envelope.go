package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is bumped whenever the envelope shape changes.
// Clients check it before decoding data.
const EnvelopeVersion = 1

// APIEnvelope wraps every versioned API response body.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// APIErrorEnvelope is used for errors that carry structured details.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma.Transformer that wraps response bodies in
// {v, success, data|error}. ctx is unused and may be nil.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = 200
	}

	if code < 400 {
		if _, isErr := v.(error); !isErr {
			return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
		}
	}

	var apiErr *APIError
	if e, ok := v.(error); ok && errors.As(e, &apiErr) {
		if apiErr.Details != nil {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{Version: EnvelopeVersion, Error: apiErr.Message, Code: apiErr.Code}, nil
	}

	if e, ok := v.(error); ok {
		return APIEnvelope{Version: EnvelopeVersion, Error: e.Error()}, nil
	}

	return APIEnvelope{Version: EnvelopeVersion, Data: v}, nil
}
