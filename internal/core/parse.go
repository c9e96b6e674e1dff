package core

import (
	"reflect"
	"strings"
)

// refType is the reflect.Type of the unexported dependencyRef interface,
// used to test whether a tagged field's type is some Ref[T] instantiation.
var refType = reflect.TypeOf((*dependencyRef)(nil)).Elem()

// ParseDependencies walks the exported fields of recipeType (typically a
// struct embedded by a Recipe implementation) looking for an `inject`
// struct tag, in declaration order. The tag value is the dependency's
// contract key; an empty tag value means an absent key. recipeType must be
// a struct type, or a pointer to one.
//
// This mirrors the Python original's dataclasses.fields() walk in
// src/planner/plan/common.py: field declaration order is preserved because
// it determines, among other things, the order dependencies are reported
// in diagnostics.
func ParseDependencies(recipeType reflect.Type) ([]Dependency, error) {
	t := recipeType
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, nil
	}

	var deps []Dependency
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		// Recurse into embedded structs (e.g. a Deps struct embedded by the
		// recipe type itself), but only when the embedded field carries no
		// inject tag of its own.
		if f.Anonymous {
			if _, ok := f.Tag.Lookup("inject"); !ok {
				embeddedType := f.Type
				for embeddedType.Kind() == reflect.Pointer {
					embeddedType = embeddedType.Elem()
				}
				if embeddedType.Kind() == reflect.Struct {
					nested, err := ParseDependencies(embeddedType)
					if err != nil {
						return nil, err
					}
					deps = append(deps, nested...)
					continue
				}
			}
		}

		key, ok := f.Tag.Lookup("inject")
		if !ok {
			continue
		}
		if !f.IsExported() {
			continue
		}

		if !reflect.PointerTo(f.Type).Implements(refType) {
			return nil, &InvalidDependencyTypeError{
				Recipe: t.Name(),
				Field:  f.Name,
				Type:   f.Type.String(),
			}
		}

		zero := reflect.New(f.Type).Interface().(dependencyRef)
		deps = append(deps, Dependency{
			Field: f.Name,
			Contract: Contract{
				Type: zero.AssetType(),
				Key:  strings.TrimSpace(key),
			},
		})
	}
	return deps, nil
}

// bindDependency locates the named field on v (a pointer to a recipe-owning
// struct, or to an embedded Deps struct within it) and binds asset onto it
// via the field's SetAsset method. It is the executor's half of the
// ParseDependencies contract.
func bindDependency(v reflect.Value, field string, asset Asset) error {
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	fv, err := findField(v, field)
	if err != nil {
		return err
	}
	ref, ok := fv.Addr().Interface().(dependencyRef)
	if !ok {
		return &InvalidDependencyTypeError{Field: field, Type: fv.Type().String()}
	}
	return ref.SetAsset(asset)
}

func findField(v reflect.Value, name string) (reflect.Value, error) {
	t := v.Type()
	if f, ok := t.FieldByName(name); ok && len(f.Index) == 1 {
		return v.FieldByIndex(f.Index), nil
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ev := v.Field(i)
		for ev.Kind() == reflect.Pointer {
			if ev.IsNil() {
				ev.Set(reflect.New(ev.Type().Elem()))
			}
			ev = ev.Elem()
		}
		if ev.Kind() != reflect.Struct {
			continue
		}
		if fv, err := findField(ev, name); err == nil {
			return fv, nil
		}
	}
	return reflect.Value{}, &InvalidDependencyTypeError{Field: name, Type: "<not found>"}
}

// BindDependencies binds every entry in deps onto recipe's corresponding
// fields using the built assets supplied by get. get is called once per
// dependency and must return the asset matching that dependency's
// contract; the executor is responsible for resolving which built node
// satisfies which contract before calling BindDependencies.
func BindDependencies(recipe Recipe, deps []Dependency, get func(Contract) (Asset, error)) error {
	v := reflect.ValueOf(recipe)
	for _, d := range deps {
		asset, err := get(d.Contract)
		if err != nil {
			return err
		}
		if err := bindDependency(v, d.Field, asset); err != nil {
			return err
		}
	}
	return nil
}
