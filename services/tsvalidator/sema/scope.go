// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sema

// scopeKind identifies what introduced a scope.
type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeBlock
	scopeClass
	scopeType
	scopeNamespace
)

// bindingKind classifies a value-space declaration.
type bindingKind int

const (
	bindLexical bindingKind = iota
	bindVar
	bindFunction
	bindOverload
	bindParam
	bindImport
	bindClass
	bindEnum
	bindNamespace
)

// typeKind classifies a type-space declaration.
type typeKind int

const (
	typeAlias typeKind = iota
	typeInterface
	typeClass
	typeEnum
	typeParam
	typeImport
	typeNamespace
	typeInfer
)

// scope is one level of the symbol model. A TypeScript name can live in
// the value space, the type space, or both, so each scope keeps two tables.
type scope struct {
	kind   scopeKind
	parent *scope
	values map[string]bindingKind
	types  map[string]typeKind
}

func newScope(kind scopeKind, parent *scope) *scope {
	return &scope{
		kind:   kind,
		parent: parent,
		values: make(map[string]bindingKind),
		types:  make(map[string]typeKind),
	}
}

// varScope returns the scope that receives `var` declarations.
func (s *scope) varScope() *scope {
	for cur := s; cur != nil; cur = cur.parent {
		switch cur.kind {
		case scopeModule, scopeFunction, scopeNamespace:
			return cur
		}
	}
	return s
}

// lookupType reports whether name resolves in the type space.
func (s *scope) lookupType(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.types[name]; ok {
			return true
		}
	}
	return false
}

// lookupValue reports whether name resolves in the value space.
func (s *scope) lookupValue(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.values[name]; ok {
			return true
		}
	}
	return false
}

// valueConflict reports whether declaring incoming next to existing in a
// scope of the given kind is a redeclaration error in strict module code.
func valueConflict(existing, incoming bindingKind, kind scopeKind) bool {
	switch {
	case existing == bindOverload || incoming == bindOverload:
		return false
	case existing == bindNamespace || incoming == bindNamespace:
		return false
	case existing == bindEnum && incoming == bindEnum:
		return false
	case existing == bindVar && incoming == bindVar:
		return false
	case existing == bindParam && incoming == bindVar,
		existing == bindVar && incoming == bindParam:
		return false
	case existing == bindParam && incoming == bindFunction:
		return false
	case existing == bindVar && incoming == bindFunction,
		existing == bindFunction && incoming == bindVar:
		return kind == scopeModule || kind == scopeBlock
	}
	return true
}

// typeConflict reports whether two type-space declarations of the same name
// collide instead of merging.
func typeConflict(existing, incoming typeKind) bool {
	switch {
	case existing == typeNamespace || incoming == typeNamespace:
		return false
	case existing == typeInterface && incoming == typeInterface:
		return false
	case existing == typeInterface && incoming == typeClass,
		existing == typeClass && incoming == typeInterface:
		return false
	case existing == typeEnum && incoming == typeEnum:
		return false
	}
	return true
}
