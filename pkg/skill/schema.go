// SPDX-License-Identifier: Apache-2.0

package skill

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// opaqueObjectSchema is the fallback used when schema reflection fails or
// when a handler takes an untyped map: an unconstrained object.
func opaqueObjectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: jsonschema.TrueSchema,
	}
}

// inputSchema reflects a JSON schema for the args parameter. Reflection
// failures never abort registration; they degrade to an opaque object.
func inputSchema(argsType reflect.Type) *jsonschema.Schema {
	if argsType == nil || argsType == mapType {
		return opaqueObjectSchema()
	}
	if argsType.Kind() == reflect.Pointer {
		argsType = argsType.Elem()
	}
	return reflectSchema(argsType)
}

// outputSchema reflects a JSON schema for the handler's result value, or
// nil when the handler produces none.
func outputSchema(fn reflect.Type, returnsValue bool) *jsonschema.Schema {
	if !returnsValue {
		return nil
	}
	out := fn.Out(0)
	if out.Kind() == reflect.Interface {
		return opaqueObjectSchema()
	}
	return reflectSchema(out)
}

func reflectSchema(t reflect.Type) (schema *jsonschema.Schema) {
	defer func() {
		if recover() != nil {
			schema = opaqueObjectSchema()
		}
	}()
	reflector := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: t.Kind() == reflect.Struct,
	}
	schema = reflector.ReflectFromType(t)
	if schema == nil {
		schema = opaqueObjectSchema()
	}
	return schema
}
