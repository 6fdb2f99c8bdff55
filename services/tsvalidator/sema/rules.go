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
	"fmt"
)

// Rule names the check that produced a diagnostic.
type Rule string

const (
	RuleRedeclaration    Rule = "redeclaration"
	RuleDuplicateFunc    Rule = "duplicate-function"
	RuleDuplicateType    Rule = "duplicate-identifier"
	RuleDuplicateMember  Rule = "duplicate-member"
	RuleDuplicateExport  Rule = "duplicate-export"
	RuleDuplicateLabel   Rule = "duplicate-label"
	RuleIllegalBreak     Rule = "illegal-break"
	RuleIllegalContinue  Rule = "illegal-continue"
	RuleIllegalReturn    Rule = "illegal-return"
	RuleUndefinedLabel   Rule = "undefined-label"
	RuleStrictDelete     Rule = "strict-delete"
	RuleStrictWith       Rule = "strict-with"
	RuleStrictOctal      Rule = "strict-octal"
	RuleStrictEvalArgs   Rule = "strict-eval-arguments"
	RuleStrictEscape     Rule = "strict-escape"
	RuleStrictParams     Rule = "strict-directive-params"
	RuleReservedWord     Rule = "reserved-word"
	RuleConstInit        Rule = "const-initializer"
	RuleInvalidTarget    Rule = "invalid-assignment-target"
	RuleRestParam        Rule = "rest-parameter"
	RuleMultipleExtends  Rule = "multiple-extends"
	RuleDuplicateCtor    Rule = "duplicate-constructor"
	RuleIllegalSuper     Rule = "illegal-super"
	RuleIllegalNewTarget Rule = "illegal-new-target"
	RulePrivateName      Rule = "undeclared-private-name"
	RuleUndefinedExport  Rule = "undefined-export"
	RuleUnresolvedName   Rule = "unresolved-name"
	RuleUnresolvedImport Rule = "unresolved-import"
)

// strictRules are only reported when syntax checking is enabled. The
// resolution rules always run because they come from the scope model itself.
var strictRules = map[Rule]bool{
	RuleRedeclaration:    true,
	RuleDuplicateFunc:    true,
	RuleDuplicateType:    true,
	RuleDuplicateMember:  true,
	RuleDuplicateExport:  true,
	RuleDuplicateLabel:   true,
	RuleIllegalBreak:     true,
	RuleIllegalContinue:  true,
	RuleIllegalReturn:    true,
	RuleUndefinedLabel:   true,
	RuleStrictDelete:     true,
	RuleStrictWith:       true,
	RuleStrictOctal:      true,
	RuleStrictEvalArgs:   true,
	RuleStrictEscape:     true,
	RuleStrictParams:     true,
	RuleReservedWord:     true,
	RuleConstInit:        true,
	RuleInvalidTarget:    true,
	RuleRestParam:        true,
	RuleMultipleExtends:  true,
	RuleDuplicateCtor:    true,
	RuleIllegalSuper:     true,
	RuleIllegalNewTarget: true,
	RulePrivateName:      true,
}

// Diagnostic is one semantic complaint, positioned in the original input.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
	Rule    Rule   `json:"rule"`
}

// String renders the diagnostic as "<message> at <line>:<column>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %d:%d", d.Message, d.Line, d.Column)
}

func msgRedeclared(name string) string {
	return fmt.Sprintf("Identifier `%s` has already been declared", name)
}

const msgDuplicateFunction = "Duplicate function implementation."

func msgDuplicateIdentifier(name string) string {
	return fmt.Sprintf("Duplicate identifier '%s'.", name)
}

func msgDuplicateExport(name string) string {
	return fmt.Sprintf("Duplicated export '%s'", name)
}

func msgDuplicateLabel(name string) string {
	return fmt.Sprintf("Label `%s` has already been declared", name)
}

func msgUndefinedLabel(name string) string {
	return fmt.Sprintf("Use of undefined label `%s`", name)
}

func msgContinueNotLoop(name string) string {
	return fmt.Sprintf("Illegal continue statement: `%s` does not denote an iteration statement", name)
}

const (
	msgIllegalBreak    = "Illegal break statement"
	msgIllegalContinue = "Illegal continue statement: no surrounding iteration statement"
	msgIllegalReturn   = "A 'return' statement can only be used within a function body."
	msgStrictDelete    = "Delete of an unqualified identifier in strict mode."
	msgStrictWith      = "'with' statements are not allowed in strict mode."
	msgLegacyOctal     = "Octal literals are not allowed in strict mode."
	msgLeadingZero     = "Decimals with leading zeros are not allowed in strict mode."
	msgOctalEscape     = "Octal escape sequences are not allowed in strict mode."
	msgEscape89        = "Escape sequences \\8 and \\9 are not allowed in strict mode."
	msgStrictParams    = "'use strict' directive cannot be used with non-simple parameter list."
	msgConstInit       = "'const' declarations must be initialized."
	msgRestNotLast     = "A rest parameter must be last in a parameter list."
	msgMultipleExtends = "Classes can only extend a single class."
	msgDuplicateCtor   = "Multiple constructor implementations are not allowed."
	msgSuperCall       = "'super' calls are only allowed in constructors of derived classes."
	msgSuperProperty   = "'super' property access is only allowed in class members and object methods."
	msgNewTarget       = "'new.target' can only be used in functions and class bodies."
)

// msgInvalidTarget describes an assignment or update operand that is not a
// variable or property access.
func msgInvalidTarget(update bool) string {
	if update {
		return "The operand of an increment or decrement operator must be a variable or a property access."
	}
	return "The left-hand side of an assignment expression must be a variable or a property access."
}

func msgOptionalTarget(update bool) string {
	if update {
		return "The operand of an increment or decrement operator may not be an optional property access."
	}
	return "The left-hand side of an assignment expression may not be an optional property access."
}

func msgReservedBinding(name string) string {
	if name == "await" {
		return "Identifier expected. 'await' is a reserved word that cannot be used here."
	}
	return fmt.Sprintf("Identifier expected. '%s' is a reserved word in strict mode.", name)
}

func msgPrivateName(name string) string {
	return fmt.Sprintf("Private name %s is not defined.", name)
}

func msgUndefinedExport(name string) string {
	return fmt.Sprintf("Export '%s' is not defined", name)
}

func msgStrictBinding(name string) string {
	return fmt.Sprintf("Invalid use of '%s' in strict mode.", name)
}

func msgCannotFindName(name string) string {
	return fmt.Sprintf("Cannot find name '%s'.", name)
}

func msgCannotFindImport(specifier string) string {
	return fmt.Sprintf("Cannot find module '%s' or its corresponding type declarations.", specifier)
}
