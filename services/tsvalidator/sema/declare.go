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

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/normalize"
)

// maxPatternDepth bounds recursion into destructuring patterns.
const maxPatternDepth = 256

// checkRun holds the state of one Check call.
type checkRun struct {
	src          normalize.Source
	content      []byte
	syntaxChecks bool
	maxDepth     int

	module  *scope
	exports map[string]struct{}
	diags   []Diagnostic
	seen    map[string]struct{}
}

// report records a diagnostic at the start of node.
func (r *checkRun) report(node *sitter.Node, rule Rule, message string) {
	if strictRules[rule] && !r.syntaxChecks {
		return
	}
	pos := node.StartPoint()
	line, col := r.src.Position(int(pos.Row), int(pos.Column))
	d := Diagnostic{Line: line, Column: col, Message: message, Rule: rule}

	key := d.String()
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.diags = append(r.diags, d)
}

func (r *checkRun) text(node *sitter.Node) string {
	return node.Content(r.content)
}

// hoist declares every direct statement of block in s.
func (r *checkRun) hoist(block *sitter.Node, s *scope) {
	if block == nil {
		return
	}
	for i := 0; i < int(block.NamedChildCount()); i++ {
		r.declareStatement(block.NamedChild(i), s)
	}
}

// declareStatement declares the names a single statement binds.
func (r *checkRun) declareStatement(n *sitter.Node, s *scope) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "lexical_declaration":
		r.declareDeclarators(n, bindLexical, s)
	case "variable_declaration":
		r.declareDeclarators(n, bindVar, s.varScope())
	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			r.declareValue(name, bindFunction, s)
		}
	case "function_signature":
		if name := n.ChildByFieldName("name"); name != nil {
			r.declareValue(name, bindOverload, s)
		}
	case "class_declaration", "abstract_class_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			r.declareBoth(name, bindClass, typeClass, s)
		}
	case "enum_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			r.declareBoth(name, bindEnum, typeEnum, s)
		}
	case "interface_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			r.declareType(name, typeInterface, s)
		}
	case "type_alias_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			r.declareType(name, typeAlias, s)
		}
	case "internal_module", "module":
		if name := namespaceName(n); name != nil {
			r.declareBoth(name, bindNamespace, typeNamespace, s)
		}
	case "import_statement":
		r.declareImports(n, s)
	case "import_alias":
		if name := firstNamedOfType(n, "identifier"); name != nil {
			r.declareBoth(name, bindImport, typeImport, s)
		}
	case "export_statement":
		if s == r.module {
			r.recordExports(n)
		}
		r.declareStatement(n.ChildByFieldName("declaration"), s)
	case "ambient_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			r.declareStatement(n.NamedChild(i), s)
		}
	}
}

// declareDeclarators declares every binding of a let/const/var statement.
func (r *checkRun) declareDeclarators(n *sitter.Node, kind bindingKind, s *scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		for _, id := range bindingNames(decl.ChildByFieldName("name"), nil, 0) {
			r.declareValue(id, kind, s)
		}
	}
}

// declareImports declares the local names of an import statement.
func (r *checkRun) declareImports(n *sitter.Node, s *scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "import_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				part := child.NamedChild(j)
				switch part.Type() {
				case "identifier":
					r.declareBoth(part, bindImport, typeImport, s)
				case "namespace_import":
					if id := firstNamedOfType(part, "identifier"); id != nil {
						r.declareBoth(id, bindImport, typeImport, s)
					}
				case "named_imports":
					for k := 0; k < int(part.NamedChildCount()); k++ {
						spec := part.NamedChild(k)
						if spec.Type() != "import_specifier" {
							continue
						}
						local := spec.ChildByFieldName("alias")
						if local == nil {
							local = spec.ChildByFieldName("name")
						}
						if local != nil && local.Type() == "identifier" {
							r.declareBoth(local, bindImport, typeImport, s)
						}
					}
				}
			}
		case "import_require_clause":
			if id := firstNamedOfType(child, "identifier"); id != nil {
				r.declareBoth(id, bindImport, typeImport, s)
			}
		}
	}
}

// declareParams declares the parameters of one parameter list.
func (r *checkRun) declareParams(params *sitter.Node, s *scope) {
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		switch param.Type() {
		case "required_parameter", "optional_parameter":
			for _, id := range bindingNames(param.ChildByFieldName("pattern"), nil, 0) {
				r.declareValue(id, bindParam, s)
			}
		}
	}
}

// checkParams reports a rest parameter that is not last, and a 'use strict'
// directive in a function whose parameter list is not simple.
func (r *checkRun) checkParams(params, body *sitter.Node) {
	var list []*sitter.Node
	for i := 0; i < int(params.NamedChildCount()); i++ {
		switch param := params.NamedChild(i); param.Type() {
		case "required_parameter", "optional_parameter":
			list = append(list, param)
		}
	}

	simple := true
	for i, param := range list {
		pattern := param.ChildByFieldName("pattern")
		if pattern == nil || pattern.Type() == "this" {
			continue
		}
		if pattern.Type() == "rest_pattern" && i < len(list)-1 {
			r.report(param, RuleRestParam, msgRestNotLast)
		}
		if pattern.Type() != "identifier" || param.ChildByFieldName("value") != nil {
			simple = false
		}
	}
	if simple || body == nil || body.Type() != "statement_block" {
		return
	}
	if directive := r.useStrictDirective(body); directive != nil {
		r.report(directive, RuleStrictParams, msgStrictParams)
	}
}

// useStrictDirective returns the 'use strict' string of the directive
// prologue of body, if any.
func (r *checkRun) useStrictDirective(body *sitter.Node) *sitter.Node {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return nil
		}
		str := stmt.NamedChild(0)
		if str.Type() != "string" {
			return nil
		}
		if unquote(r.text(str)) == "use strict" {
			return str
		}
	}
	return nil
}

// declareTypeParams declares the type parameters of a generic declaration.
func (r *checkRun) declareTypeParams(params *sitter.Node, s *scope) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		if param.Type() != "type_parameter" {
			continue
		}
		if name := param.ChildByFieldName("name"); name != nil {
			r.declareType(name, typeParam, s)
		}
	}
}

// declareValue adds a value binding, reporting a redeclaration on conflict.
// It returns false when the binding conflicted.
func (r *checkRun) declareValue(id *sitter.Node, kind bindingKind, s *scope) bool {
	name := r.text(id)
	if kind != bindOverload && kind != bindNamespace && isRestrictedName(name) {
		r.report(id, RuleStrictEvalArgs, msgStrictBinding(name))
	}
	if strictReserved[name] {
		r.report(id, RuleReservedWord, msgReservedBinding(name))
	}

	existing, ok := s.values[name]
	if ok && valueConflict(existing, kind, s.kind) {
		if existing == bindFunction && kind == bindFunction {
			r.report(id, RuleDuplicateFunc, msgDuplicateFunction)
		} else {
			r.report(id, RuleRedeclaration, msgRedeclared(name))
		}
		return false
	}
	if !ok || existing == bindOverload || existing == bindNamespace {
		s.values[name] = kind
	}
	return true
}

// declareType adds a type binding, reporting a duplicate on conflict.
func (r *checkRun) declareType(id *sitter.Node, kind typeKind, s *scope) bool {
	name := r.text(id)
	existing, ok := s.types[name]
	if ok && typeConflict(existing, kind) {
		r.report(id, RuleDuplicateType, msgDuplicateIdentifier(name))
		return false
	}
	if !ok || existing == typeNamespace {
		s.types[name] = kind
	}
	return true
}

// declareBoth declares a name in both spaces and reports at most once.
func (r *checkRun) declareBoth(id *sitter.Node, value bindingKind, typ typeKind, s *scope) {
	if r.declareValue(id, value, s) {
		r.declareType(id, typ, s)
		return
	}
	if _, ok := s.types[r.text(id)]; !ok {
		s.types[r.text(id)] = typ
	}
}

// recordExports registers the names an export statement exports from the
// module and reports duplicates. Declarations that merge (interfaces,
// namespaces, enums, overload signatures) are not tracked.
func (r *checkRun) recordExports(n *sitter.Node) {
	if firstChildOfType(n, "default") != nil {
		r.addExport(n, "default")
		return
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		switch decl.Type() {
		case "lexical_declaration", "variable_declaration":
			for i := 0; i < int(decl.NamedChildCount()); i++ {
				d := decl.NamedChild(i)
				if d.Type() != "variable_declarator" {
					continue
				}
				for _, id := range bindingNames(d.ChildByFieldName("name"), nil, 0) {
					r.addExport(id, r.text(id))
				}
			}
		case "function_declaration", "generator_function_declaration",
			"class_declaration", "abstract_class_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				r.addExport(name, r.text(name))
			}
		case "type_alias_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				r.addExport(name, "type "+r.text(name))
			}
		}
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "export_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				exported := spec.ChildByFieldName("alias")
				if exported == nil {
					exported = spec.ChildByFieldName("name")
				}
				if exported != nil {
					r.addExport(exported, unquote(r.text(exported)))
				}
			}
		case "namespace_export":
			if child.NamedChildCount() > 0 {
				name := child.NamedChild(0)
				r.addExport(name, unquote(r.text(name)))
			}
		}
	}
}

func (r *checkRun) addExport(node *sitter.Node, name string) {
	if _, dup := r.exports[name]; dup {
		r.report(node, RuleDuplicateExport, msgDuplicateExport(strings.TrimPrefix(name, "type ")))
		return
	}
	r.exports[name] = struct{}{}
}

// bindingNames appends the identifiers a binding pattern introduces.
func bindingNames(n *sitter.Node, out []*sitter.Node, depth int) []*sitter.Node {
	if n == nil || depth > maxPatternDepth {
		return out
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return append(out, n)
	case "object_pattern", "array_pattern", "rest_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out = bindingNames(n.NamedChild(i), out, depth+1)
		}
	case "pair_pattern":
		out = bindingNames(n.ChildByFieldName("value"), out, depth+1)
	case "object_assignment_pattern", "assignment_pattern":
		out = bindingNames(n.ChildByFieldName("left"), out, depth+1)
	}
	return out
}

// namespaceName returns the identifier a namespace declaration binds, or nil
// for ambient module declarations named by a string.
func namespaceName(n *sitter.Node) *sitter.Node {
	name := n.ChildByFieldName("name")
	if name == nil {
		return nil
	}
	switch name.Type() {
	case "identifier":
		return name
	case "nested_identifier":
		return firstNamedOfType(name, "identifier")
	}
	return nil
}

func firstNamedOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

func firstChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

// sameNode compares nodes by position and type.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// strictReserved are the words strict and module code reserve as binding
// names on top of the keywords the grammar already refuses.
var strictReserved = map[string]bool{
	"implements": true,
	"interface":  true,
	"let":        true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"static":     true,
	"yield":      true,
	"await":      true,
}

func isRestrictedName(name string) bool {
	return name == "eval" || name == "arguments"
}

// unquote strips matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
