package assert

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"pkt.systems/bookbdd/internal/gateway"
)

var errNotJSON = errors.New("body is not JSON")

// document is a response body parsed into native JS values.
type document struct {
	vm   *goja.Runtime
	root goja.Value
}

func parseDocument(res gateway.Response) (*document, error) {
	if !res.IsJSON() {
		return nil, errNotJSON
	}
	vm := goja.New()
	jsonObj := vm.Get("JSON").ToObject(vm)
	parseFn, ok := goja.AssertFunction(jsonObj.Get("parse"))
	if !ok {
		return nil, fmt.Errorf("JSON.parse missing")
	}
	root, err := parseFn(jsonObj, vm.ToValue(string(res.Body)))
	if err != nil {
		return nil, err
	}
	return &document{vm: vm, root: root}, nil
}

// lookup walks a dot-delimited path. "" and "$" address the root; bracket
// segments such as headers['x-id'] and array indexes (items.0) are accepted.
func (d *document) lookup(path string) goja.Value {
	path = strings.TrimSpace(path)
	if path == "" || path == "$" {
		return d.root
	}
	path = strings.TrimPrefix(path, "$.")
	current := d.root
	for _, p := range strings.Split(path, ".") {
		if strings.Contains(p, "['") || strings.Contains(p, "[\"") {
			before, rest, _ := strings.Cut(p, "[")
			if before != "" {
				current = get(current, before)
			}
			key := strings.Trim(rest, `]'"`)
			current = get(current, key)
			continue
		}
		current = get(current, p)
	}
	return current
}

// resolve looks path up at the root and, failing that, under each top-level
// object field (the envelope form {"bookingid": 1, "booking": {...}}).
func (d *document) resolve(path string) goja.Value {
	if v := d.lookup(path); !goja.IsUndefined(v) {
		return v
	}
	obj, ok := d.root.(*goja.Object)
	if !ok {
		return goja.Undefined()
	}
	for _, k := range obj.Keys() {
		inner, ok := obj.Get(k).(*goja.Object)
		if !ok || inner.ClassName() != "Object" {
			continue
		}
		if v := d.lookup(k + "." + path); !goja.IsUndefined(v) {
			return v
		}
	}
	return goja.Undefined()
}

// get resolves key as an own property of v. Inherited members such as
// "constructor" or "toString" are not response fields; arrays accept only
// in-range indexes.
func get(v goja.Value, key string) goja.Value {
	o, ok := v.(*goja.Object)
	if !ok || o == nil {
		return goja.Undefined()
	}
	if o.ClassName() == "Array" {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || int64(idx) >= o.Get("length").ToInteger() {
			return goja.Undefined()
		}
	} else if !slices.Contains(o.Keys(), key) {
		return goja.Undefined()
	}
	val := o.Get(key)
	if val == nil {
		return goja.Undefined()
	}
	return val
}
