package sqlq

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Defaulter is implemented by typed targets that need non-zero defaults for
// fields a row does not supply. SetDefaults is called on every new object
// before column values are assigned.
type Defaulter interface {
	SetDefaults()
}

// structPlan maps normalized column names to the fields of one struct type.
// Plans are built once per type and shared by every query and row.
type structPlan struct {
	rt     reflect.Type
	fields map[string]fieldInfo
}

type fieldInfo struct {
	name  string       // Go field name, for messages
	index []int        // index path through embedded structs
	typ   reflect.Type // declared type, the coercion destination
}

var plans sync.Map // key: reflect.Type -> *structPlan

// planFor returns the cached plan for rt, building it on first use.
func planFor(rt reflect.Type) (*structPlan, error) {
	if v, ok := plans.Load(rt); ok {
		return v.(*structPlan), nil
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("typed target must be a struct, got %s", rt)
	}
	p := buildPlan(rt)
	actual, _ := plans.LoadOrStore(rt, p)
	return actual.(*structPlan), nil
}

// buildPlan indexes exported fields by `db:"name"` tag or field name.
// Anonymous struct fields without a tag are flattened; `db:"-"` is skipped.
// When two fields normalize to the same name the shallower one wins.
func buildPlan(rt reflect.Type) *structPlan {
	p := &structPlan{rt: rt, fields: make(map[string]fieldInfo)}

	var walk func(t reflect.Type, base []int)
	walk = func(t reflect.Type, base []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			tag := sf.Tag.Get("db")
			if tag == "-" {
				continue
			}
			path := append(append([]int(nil), base...), i)

			ft := sf.Type
			if sf.Anonymous && tag == "" {
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					walk(ft, path)
					continue
				}
			}
			name := tag
			if name == "" {
				name = sf.Name
			}
			key := normalizeName(name)
			if prev, ok := p.fields[key]; ok && len(prev.index) <= len(path) {
				continue
			}
			p.fields[key] = fieldInfo{name: sf.Name, index: path, typ: sf.Type}
		}
	}
	walk(rt, nil)
	return p
}

// newTarget allocates a default-constructed object of the plan's type.
func (p *structPlan) newTarget() reflect.Value {
	rv := reflect.New(p.rt)
	if d, ok := rv.Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	return rv.Elem()
}

// columnKeys normalizes a result's column names once per query.
func columnKeys(cols []string) []string {
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = normalizeName(c)
	}
	return keys
}

// fill assigns the row's values onto dst. Columns without a matching field
// are skipped. The first coercion failure aborts with DecodeFailed.
func (p *structPlan) fill(dst reflect.Value, r Row, keys []string) error {
	for i := 0; i < r.Len(); i++ {
		name, v := r.At(i)
		f, ok := p.fields[keys[i]]
		if !ok {
			continue
		}
		if err := coerce(v, fieldByPathAlloc(dst, f.index)); err != nil {
			return newDecodeError(name, fmt.Errorf("field %s (%s): %w", f.name, f.typ, err))
		}
	}
	return nil
}

// fieldByPathAlloc walks path, allocating nil embedded pointers on the way.
func fieldByPathAlloc(root reflect.Value, path []int) reflect.Value {
	v := root
	for n, i := range path {
		if n > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// normalizeName makes column and field names comparable: identifier quotes
// are stripped, then the name is NFC normalized and case folded.
func normalizeName(s string) string {
	if l := len(s); l >= 2 {
		switch {
		case s[0] == '"' && s[l-1] == '"',
			s[0] == '`' && s[l-1] == '`',
			s[0] == '[' && s[l-1] == ']':
			s = s[1 : l-1]
		}
	}
	// A Caser is stateful; one per call.
	return cases.Fold().String(norm.NFC.String(s))
}
