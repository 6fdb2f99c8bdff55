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
)

// label is an enclosing labeled statement.
type label struct {
	name string
	loop bool
}

// privateNames are the #names declared by one class body.
type privateNames struct {
	names  map[string]struct{}
	parent *privateNames
}

func (p *privateNames) has(name string) bool {
	for ; p != nil; p = p.parent {
		if _, ok := p.names[name]; ok {
			return true
		}
	}
	return false
}

// walkState is the lexical context of the node being walked. It is passed
// by value; labels is never appended to in place.
type walkState struct {
	scope      *scope
	inFunction bool
	inLoop     bool
	inSwitch   bool
	labels     []label

	ambient   bool // inside a declare block
	derived   bool // directly in the body of a class with an extends clause
	superCall bool
	superProp bool
	newTarget bool
	privates  *privateNames
}

func (s walkState) withScope(sc *scope) walkState {
	s.scope = sc
	return s
}

func (s walkState) findLabel(name string) (label, bool) {
	for i := len(s.labels) - 1; i >= 0; i-- {
		if s.labels[i].name == name {
			return s.labels[i], true
		}
	}
	return label{}, false
}

// functionLike lists node types that open a function scope.
var functionLike = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
	"function_signature":             true,
	"method_signature":               true,
	"abstract_method_signature":      true,
	"call_signature":                 true,
	"construct_signature":            true,
	"function_type":                  true,
	"constructor_type":               true,
}

var loopTypes = map[string]bool{
	"for_statement":    true,
	"for_in_statement": true,
	"while_statement":  true,
	"do_statement":     true,
}

func (r *checkRun) walkChildren(n *sitter.Node, st walkState, depth int) error {
	return r.walkChildrenExcept(n, nil, st, depth)
}

// walkChildrenExcept walks the named children of n other than skip.
func (r *checkRun) walkChildrenExcept(n, skip *sitter.Node, st walkState, depth int) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if skip != nil && sameNode(child, skip) {
			continue
		}
		if err := r.walk(child, st, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// walk visits n in context st.
func (r *checkRun) walk(n *sitter.Node, st walkState, depth int) error {
	if n == nil {
		return nil
	}
	if depth > r.maxDepth {
		return ErrNestingTooDeep
	}

	typ := n.Type()
	if functionLike[typ] {
		return r.walkFunction(n, st, depth)
	}
	if loopTypes[typ] {
		return r.walkLoop(n, st, depth)
	}

	switch typ {
	case "statement_block":
		block := newScope(scopeBlock, st.scope)
		r.hoist(n, block)
		return r.walkChildren(n, st.withScope(block), depth)

	case "class_declaration", "abstract_class_declaration", "class":
		return r.walkClass(n, st, depth)

	case "interface_declaration", "type_alias_declaration":
		inner := newScope(scopeType, st.scope)
		r.declareTypeParams(n.ChildByFieldName("type_parameters"), inner)
		return r.walkChildrenExcept(n, n.ChildByFieldName("name"), st.withScope(inner), depth)

	case "type_parameter", "mapped_type_clause":
		return r.walkChildrenExcept(n, n.ChildByFieldName("name"), st, depth)

	case "conditional_type":
		return r.walkConditional(n, st, depth)

	case "infer_type":
		return r.walkChildrenExcept(n, firstNamedOfType(n, "type_identifier"), st, depth)

	case "index_signature":
		if clause := firstNamedOfType(n, "mapped_type_clause"); clause != nil {
			inner := newScope(scopeType, st.scope)
			if name := clause.ChildByFieldName("name"); name != nil {
				inner.types[r.text(name)] = typeParam
			}
			return r.walkChildren(n, st.withScope(inner), depth)
		}

	case "object_type", "interface_body":
		r.checkMembers(n)

	case "enum_body":
		r.checkEnumMembers(n)

	case "class_body":
		r.checkClassFields(n)

	case "type_identifier":
		r.resolveType(n, st.scope)
		return nil

	case "nested_type_identifier":
		return nil

	case "import_statement":
		r.checkImportSource(n)
		return nil

	case "export_statement":
		return r.walkExport(n, st, depth)

	case "internal_module", "module":
		body := n.ChildByFieldName("body")
		if body == nil {
			return nil
		}
		ns := newScope(scopeNamespace, st.scope)
		r.hoist(body, ns)
		return r.walkChildren(body, walkState{scope: ns, ambient: st.ambient}, depth)

	case "ambient_declaration":
		inner := st
		inner.ambient = true
		return r.walkChildren(n, inner, depth)

	case "lexical_declaration":
		if !st.ambient && firstChildOfType(n, "const") != nil {
			r.checkConstInit(n)
		}

	case "variable_declarator":
		// Some reserved words reach here without the identifier alias.
		if name := n.ChildByFieldName("name"); name != nil && strictReserved[r.text(name)] {
			r.report(name, RuleReservedWord, msgReservedBinding(r.text(name)))
		}

	case "switch_statement":
		inner := st
		inner.inSwitch = true
		return r.walkChildren(n, inner, depth)

	case "switch_body":
		block := newScope(scopeBlock, st.scope)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			clause := n.NamedChild(i)
			value := clause.ChildByFieldName("value")
			for j := 0; j < int(clause.NamedChildCount()); j++ {
				if stmt := clause.NamedChild(j); !sameNode(stmt, value) {
					r.declareStatement(stmt, block)
				}
			}
		}
		return r.walkChildren(n, st.withScope(block), depth)

	case "labeled_statement":
		return r.walkLabeled(n, st, depth)

	case "break_statement":
		if lbl := n.ChildByFieldName("label"); lbl != nil {
			if _, ok := st.findLabel(r.text(lbl)); !ok {
				r.report(lbl, RuleUndefinedLabel, msgUndefinedLabel(r.text(lbl)))
			}
		} else if !st.inLoop && !st.inSwitch {
			r.report(n, RuleIllegalBreak, msgIllegalBreak)
		}
		return nil

	case "continue_statement":
		if lbl := n.ChildByFieldName("label"); lbl != nil {
			name := r.text(lbl)
			if l, ok := st.findLabel(name); !ok {
				r.report(lbl, RuleUndefinedLabel, msgUndefinedLabel(name))
			} else if !l.loop {
				r.report(lbl, RuleIllegalContinue, msgContinueNotLoop(name))
			}
		} else if !st.inLoop {
			r.report(n, RuleIllegalContinue, msgIllegalContinue)
		}
		return nil

	case "return_statement":
		if !st.inFunction {
			r.report(n, RuleIllegalReturn, msgIllegalReturn)
		}

	case "catch_clause":
		block := newScope(scopeBlock, st.scope)
		for _, id := range bindingNames(n.ChildByFieldName("parameter"), nil, 0) {
			r.declareValue(id, bindParam, block)
		}
		return r.walkChildren(n, st.withScope(block), depth)

	case "with_statement":
		r.report(n, RuleStrictWith, msgStrictWith)

	case "unary_expression":
		if op := n.ChildByFieldName("operator"); op != nil && r.text(op) == "delete" {
			if arg := unwrapParens(n.ChildByFieldName("argument")); arg != nil && arg.Type() == "identifier" {
				r.report(n, RuleStrictDelete, msgStrictDelete)
			}
		}

	case "assignment_expression", "augmented_assignment_expression":
		r.checkAssignTarget(n.ChildByFieldName("left"), false)

	case "update_expression":
		r.checkAssignTarget(n.ChildByFieldName("argument"), true)

	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil && fn.Type() == "super" && !st.superCall {
			r.report(n, RuleIllegalSuper, msgSuperCall)
		}

	case "member_expression", "subscript_expression":
		if obj := n.ChildByFieldName("object"); obj != nil && obj.Type() == "super" && !st.superProp {
			r.report(n, RuleIllegalSuper, msgSuperProperty)
		}

	case "meta_property":
		if strings.HasPrefix(r.text(n), "new") && !st.newTarget {
			r.report(n, RuleIllegalNewTarget, msgNewTarget)
		}
		return nil

	case "private_property_identifier":
		if name := r.text(n); !st.privates.has(name) {
			r.report(n, RulePrivateName, msgPrivateName(name))
		}
		return nil

	case "number":
		if msg, bad := legacyNumber(r.text(n)); bad {
			r.report(n, RuleStrictOctal, msg)
		}
		return nil

	case "string":
		if msg, bad := legacyEscape(r.text(n)); bad {
			r.report(n, RuleStrictEscape, msg)
		}
		return nil
	}

	return r.walkChildren(n, st, depth)
}

// walkFunction opens a function scope holding the type parameters, the
// parameters and the hoisted body declarations. Arrow functions keep the
// super and new.target context of their surroundings.
func (r *checkRun) walkFunction(n *sitter.Node, st walkState, depth int) error {
	fn := newScope(scopeFunction, st.scope)
	inner := walkState{
		scope:      fn,
		inFunction: true,
		ambient:    st.ambient,
		newTarget:  true,
		privates:   st.privates,
	}
	switch n.Type() {
	case "arrow_function":
		inner.superCall, inner.superProp, inner.newTarget = st.superCall, st.superProp, st.newTarget
	case "method_definition":
		inner.superProp = true
		inner.superCall = st.derived && r.isConstructor(n)
	}

	body := n.ChildByFieldName("body")
	r.declareTypeParams(n.ChildByFieldName("type_parameters"), fn)
	if params := n.ChildByFieldName("parameters"); params != nil {
		r.declareParams(params, fn)
		r.checkParams(params, body)
	}
	if param := n.ChildByFieldName("parameter"); param != nil {
		for _, id := range bindingNames(param, nil, 0) {
			r.declareValue(id, bindParam, fn)
		}
	}

	if err := r.walkChildrenExcept(n, body, inner, depth); err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	if body.Type() == "statement_block" {
		r.hoist(body, fn)
		return r.walkChildren(body, inner, depth+1)
	}
	return r.walk(body, inner, depth+1)
}

// walkClass opens a class scope for the type parameters and the private
// names of the body. Control flow context does not cross the class boundary.
func (r *checkRun) walkClass(n *sitter.Node, st walkState, depth int) error {
	cls := newScope(scopeClass, st.scope)
	r.declareTypeParams(n.ChildByFieldName("type_parameters"), cls)

	name := n.ChildByFieldName("name")
	if name != nil && n.Type() == "class" {
		cls.values[r.text(name)] = bindClass
		cls.types[r.text(name)] = typeClass
	}

	inner := walkState{
		scope:     cls,
		ambient:   st.ambient,
		superProp: true,
		newTarget: true,
		privates:  r.classPrivates(n.ChildByFieldName("body"), st.privates),
	}
	if heritage := firstNamedOfType(n, "class_heritage"); heritage != nil {
		if ext := firstNamedOfType(heritage, "extends_clause"); ext != nil {
			inner.derived = true
			r.checkExtends(ext)
		}
	}
	return r.walkChildrenExcept(n, name, inner, depth)
}

// classPrivates collects the #names a class body declares.
func (r *checkRun) classPrivates(body *sitter.Node, parent *privateNames) *privateNames {
	p := &privateNames{names: make(map[string]struct{}), parent: parent}
	if body == nil {
		return p
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "public_field_definition", "method_definition", "method_signature", "abstract_method_signature":
			if name := member.ChildByFieldName("name"); name != nil && name.Type() == "private_property_identifier" {
				p.names[r.text(name)] = struct{}{}
			}
		}
	}
	return p
}

// checkExtends reports a class extends clause naming more than one class.
func (r *checkRun) checkExtends(ext *sitter.Node) {
	var values int
	for i := 0; i < int(ext.NamedChildCount()); i++ {
		switch child := ext.NamedChild(i); child.Type() {
		case "type_arguments", "comment":
		default:
			if values++; values == 2 {
				r.report(child, RuleMultipleExtends, msgMultipleExtends)
			}
		}
	}
}

func (r *checkRun) isConstructor(method *sitter.Node) bool {
	if parent := method.Parent(); parent == nil || parent.Type() != "class_body" {
		return false
	}
	if firstChildOfType(method, "static") != nil {
		return false
	}
	key, ok := r.memberKey(method.ChildByFieldName("name"))
	return ok && key == "constructor"
}

// checkConstInit reports const declarators without an initializer.
func (r *checkRun) checkConstInit(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" || decl.ChildByFieldName("value") != nil {
			continue
		}
		target := decl.ChildByFieldName("name")
		if target == nil {
			target = decl
		}
		r.report(target, RuleConstInit, msgConstInit)
	}
}

// walkLoop opens a scope for the loop head and marks the body as iterable.
func (r *checkRun) walkLoop(n *sitter.Node, st walkState, depth int) error {
	head := newScope(scopeBlock, st.scope)
	r.declareStatement(n.ChildByFieldName("initializer"), head)

	if n.Type() == "for_in_statement" {
		if kind := n.ChildByFieldName("kind"); kind != nil {
			bind, target := bindLexical, head
			if r.text(kind) == "var" {
				bind, target = bindVar, head.varScope()
			}
			for _, id := range bindingNames(n.ChildByFieldName("left"), nil, 0) {
				r.declareValue(id, bind, target)
			}
		}
	}

	inner := st.withScope(head)
	inner.inLoop = true
	return r.walkChildren(n, inner, depth)
}

func (r *checkRun) walkLabeled(n *sitter.Node, st walkState, depth int) error {
	lbl := n.ChildByFieldName("label")
	body := n.ChildByFieldName("body")
	if lbl == nil {
		return r.walkChildren(n, st, depth)
	}

	name := r.text(lbl)
	if _, dup := st.findLabel(name); dup {
		r.report(lbl, RuleDuplicateLabel, msgDuplicateLabel(name))
	}

	inner := st
	inner.labels = append(st.labels[:len(st.labels):len(st.labels)], label{
		name: name,
		loop: body != nil && loopTypes[body.Type()],
	})
	return r.walk(body, inner, depth+1)
}

// walkConditional makes `infer` declarations of the extends clause visible
// in the true branch only.
func (r *checkRun) walkConditional(n *sitter.Node, st walkState, depth int) error {
	if err := r.walk(n.ChildByFieldName("left"), st, depth+1); err != nil {
		return err
	}

	right := n.ChildByFieldName("right")
	inner := newScope(scopeType, st.scope)
	r.collectInfer(right, inner, 0)
	innerSt := st.withScope(inner)

	if err := r.walk(right, innerSt, depth+1); err != nil {
		return err
	}
	if err := r.walk(n.ChildByFieldName("consequence"), innerSt, depth+1); err != nil {
		return err
	}
	return r.walk(n.ChildByFieldName("alternative"), st, depth+1)
}

func (r *checkRun) collectInfer(n *sitter.Node, s *scope, depth int) {
	if n == nil || depth > r.maxDepth {
		return
	}
	if n.Type() == "infer_type" {
		if name := firstNamedOfType(n, "type_identifier"); name != nil {
			s.types[r.text(name)] = typeInfer
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		r.collectInfer(n.NamedChild(i), s, depth+1)
	}
}

func (r *checkRun) walkExport(n *sitter.Node, st walkState, depth int) error {
	if source := n.ChildByFieldName("source"); source != nil {
		r.report(source, RuleUnresolvedImport, msgCannotFindImport(unquote(r.text(source))))
		return nil
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "export_clause" {
			r.resolveExportClause(child, st.scope)
			continue
		}
		if err := r.walk(child, st, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// resolveExportClause checks that locally exported names are declared in
// the module. Globals cannot be exported without a local declaration.
func (r *checkRun) resolveExportClause(clause *sitter.Node, s *scope) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		name := spec.ChildByFieldName("name")
		if name == nil || name.Type() != "identifier" {
			continue
		}
		local := r.text(name)
		if !s.lookupValue(local) && !s.lookupType(local) {
			r.report(name, RuleUndefinedExport, msgUndefinedExport(local))
		}
	}
}

func (r *checkRun) checkImportSource(n *sitter.Node) {
	source := n.ChildByFieldName("source")
	if source == nil {
		if clause := firstNamedOfType(n, "import_require_clause"); clause != nil {
			source = clause.ChildByFieldName("source")
		}
	}
	if source != nil {
		r.report(source, RuleUnresolvedImport, msgCannotFindImport(unquote(r.text(source))))
	}
}

func (r *checkRun) resolveType(n *sitter.Node, s *scope) {
	name := r.text(n)
	if s.lookupType(name) || isGlobalType(name) {
		return
	}
	r.report(n, RuleUnresolvedName, msgCannotFindName(name))
}

// checkAssignTarget reports assignment and update operands that are not a
// variable, a property access or, for plain assignment, a pattern.
func (r *checkRun) checkAssignTarget(target *sitter.Node, update bool) {
	target = unwrapTarget(target)
	if target == nil {
		return
	}
	switch target.Type() {
	case "identifier":
		if name := r.text(target); isRestrictedName(name) {
			r.report(target, RuleStrictEvalArgs, msgStrictBinding(name))
		}
		return
	case "member_expression", "subscript_expression":
		if optionalChain(target) {
			r.report(target, RuleInvalidTarget, msgOptionalTarget(update))
		}
		return
	case "object_pattern", "array_pattern", "object", "array":
		if !update {
			return
		}
	}
	r.report(target, RuleInvalidTarget, msgInvalidTarget(update))
}

// checkMembers reports properties declared twice in an object type or
// interface body. Method overloads are allowed.
func (r *checkRun) checkMembers(body *sitter.Node) {
	props := make(map[string]bool) // name -> is property
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		var isProp bool
		switch member.Type() {
		case "property_signature":
			isProp = true
		case "method_signature":
		default:
			continue
		}
		key, ok := r.memberKey(member.ChildByFieldName("name"))
		if !ok {
			continue
		}
		wasProp, seen := props[key]
		if seen && (isProp || wasProp) {
			r.report(member, RuleDuplicateMember, msgDuplicateIdentifier(key))
			continue
		}
		if !seen {
			props[key] = isProp
		}
	}
}

func (r *checkRun) checkEnumMembers(body *sitter.Node) {
	seen := make(map[string]struct{})
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		name := member
		if member.Type() == "enum_assignment" {
			name = member.ChildByFieldName("name")
		}
		key, ok := r.memberKey(name)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			r.report(member, RuleDuplicateMember, msgDuplicateIdentifier(key))
			continue
		}
		seen[key] = struct{}{}
	}
}

// checkClassFields reports fields declared twice on the same side of a class
// and a second constructor implementation.
func (r *checkRun) checkClassFields(body *sitter.Node) {
	seen := make(map[string]struct{})
	var ctor bool
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() == "method_definition" && r.isConstructor(member) {
			if ctor {
				r.report(member, RuleDuplicateCtor, msgDuplicateCtor)
			}
			ctor = true
			continue
		}
		if member.Type() != "public_field_definition" {
			continue
		}
		key, ok := r.memberKey(member.ChildByFieldName("name"))
		if !ok {
			continue
		}
		if firstChildOfType(member, "static") != nil {
			key = "static " + key
		}
		if _, dup := seen[key]; dup {
			r.report(member, RuleDuplicateMember, msgDuplicateIdentifier(key))
			continue
		}
		seen[key] = struct{}{}
	}
}

// memberKey returns the static name of a property key. Computed keys have
// no static name.
func (r *checkRun) memberKey(name *sitter.Node) (string, bool) {
	if name == nil {
		return "", false
	}
	switch name.Type() {
	case "property_identifier", "private_property_identifier", "identifier", "number":
		return r.text(name), true
	case "string":
		return unquote(r.text(name)), true
	}
	return "", false
}

func unwrapParens(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" && n.NamedChildCount() == 1 {
		n = n.NamedChild(0)
	}
	return n
}

// unwrapTarget strips the parentheses and type-only wrappers the checker
// allows around an assignment target.
func unwrapTarget(n *sitter.Node) *sitter.Node {
	for n != nil && n.NamedChildCount() > 0 {
		switch n.Type() {
		case "parenthesized_expression", "non_null_expression", "as_expression", "satisfies_expression":
			n = n.NamedChild(0)
		case "type_assertion":
			n = n.NamedChild(int(n.NamedChildCount()) - 1)
		default:
			return n
		}
	}
	return n
}

// optionalChain reports whether an access chain contains ?. outside any
// parentheses.
func optionalChain(n *sitter.Node) bool {
	for n != nil {
		switch n.Type() {
		case "member_expression", "subscript_expression":
			if firstChildOfType(n, "optional_chain") != nil {
				return true
			}
			n = n.ChildByFieldName("object")
		case "call_expression":
			if firstChildOfType(n, "optional_chain") != nil {
				return true
			}
			n = n.ChildByFieldName("function")
		case "non_null_expression":
			n = n.NamedChild(0)
		default:
			return false
		}
	}
	return false
}

// legacyEscape reports string literal escapes that strict code rejects:
// legacy octal escapes (\1, \01) and \8 or \9.
func legacyEscape(text string) (string, bool) {
	for i := 0; i < len(text)-1; i++ {
		if text[i] != '\\' {
			continue
		}
		switch c := text[i+1]; {
		case c == '8' || c == '9':
			return msgEscape89, true
		case c >= '1' && c <= '7':
			return msgOctalEscape, true
		case c == '0' && i+2 < len(text) && text[i+2] >= '0' && text[i+2] <= '9':
			return msgOctalEscape, true
		}
		i++
	}
	return "", false
}

// legacyNumber reports numeric literals that strict code rejects: legacy
// octal (017) and decimals with a leading zero (09).
func legacyNumber(text string) (string, bool) {
	if len(text) < 2 || text[0] != '0' || text[1] < '0' || text[1] > '9' {
		return "", false
	}
	for i := 1; i < len(text); i++ {
		if text[i] < '0' || text[i] > '7' {
			return msgLeadingZero, true
		}
	}
	return msgLegacyOctal, true
}
