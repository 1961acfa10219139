package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"

	"github.com/ardanlabs/utxocoin/foundation/validate"
	"github.com/dimfeld/httptreemux/v5"
)

// Param returns the web call parameters from the request.
func Param(r *http.Request, key string) string {
	m := httptreemux.ContextParams(r.Context())
	return m[key]
}

// Decode reads the body of an HTTP request looking for a JSON document. The
// body is decoded into the provided value. Struct values are then checked
// against their validate tags.
func Decode(r *http.Request, val any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(val); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if isStruct(val) {
		if err := validate.Check(val); err != nil {
			return err
		}
	}

	return nil
}

// isStruct reports whether the value is a struct or a pointer to one.
func isStruct(val any) bool {
	t := reflect.TypeOf(val)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}
