// SPDX-License-Identifier: Apache-2.0

package skill

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	a2aerrors "github.com/jllopis/a2alite/pkg/errors"
)

// Validator lets args structs run their own invariant checks after binding.
// A returned error is surfaced as an invalid-params fault.
type Validator interface {
	Validate() error
}

// bindParams coerces the inbound params mapping into a value of argsType.
// Coercion goes through a JSON round trip, so numeric widening, embedded
// parts types with custom unmarshalers, and nested structs all follow
// encoding/json semantics. Unknown keys are ignored.
func bindParams(argsType reflect.Type, params map[string]any) (reflect.Value, error) {
	if params == nil {
		params = map[string]any{}
	}
	if argsType == mapType {
		return reflect.ValueOf(params), nil
	}

	wantPointer := argsType.Kind() == reflect.Pointer
	structType := argsType
	if wantPointer {
		structType = argsType.Elem()
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return reflect.Value{}, a2aerrors.New(a2aerrors.CodeInvalidParams, "parameters are not serializable", err)
	}

	target := reflect.New(structType)
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return reflect.Value{}, invalidParams(err)
	}

	if v, ok := target.Interface().(Validator); ok {
		if err := v.Validate(); err != nil {
			return reflect.Value{}, invalidParams(err)
		}
	} else if v, ok := target.Elem().Interface().(Validator); ok {
		if err := v.Validate(); err != nil {
			return reflect.Value{}, invalidParams(err)
		}
	}

	if wantPointer {
		return target, nil
	}
	return target.Elem(), nil
}

// invalidParams converts a decode or validation failure into a typed
// invalid-params error with per-field detail where the cause carries one.
func invalidParams(err error) *a2aerrors.Error {
	var typed *a2aerrors.Error
	if errors.As(err, &typed) && typed.Code == a2aerrors.CodeInvalidParams {
		return typed
	}

	out := a2aerrors.New(a2aerrors.CodeInvalidParams, "Invalid parameters: "+err.Error(), err)

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if idx := strings.LastIndex(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		if field == "" {
			field = "(root)"
		}
		return out.WithField(field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
	}
	return out
}
