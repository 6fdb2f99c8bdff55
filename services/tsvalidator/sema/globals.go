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

// globalTypes are the type names visible without any import under the
// standard ES library declarations. DOM and Node types are absent; references
// to them resolve as unresolved names and are later discarded as artifacts.
var globalTypes = map[string]struct{}{
	// Utility types
	"Awaited": {}, "Partial": {}, "Required": {}, "Readonly": {}, "Record": {},
	"Pick": {}, "Omit": {}, "Exclude": {}, "Extract": {}, "NonNullable": {},
	"Parameters": {}, "ConstructorParameters": {}, "ReturnType": {},
	"InstanceType": {}, "ThisParameterType": {}, "OmitThisParameter": {},
	"ThisType": {}, "NoInfer": {}, "Uppercase": {}, "Lowercase": {},
	"Capitalize": {}, "Uncapitalize": {},

	// Fundamental objects
	"Object": {}, "Function": {}, "CallableFunction": {}, "NewableFunction": {},
	"String": {}, "Number": {}, "Boolean": {}, "Symbol": {}, "BigInt": {},
	"IArguments": {}, "PropertyKey": {}, "PropertyDescriptor": {},
	"PropertyDescriptorMap": {}, "TypedPropertyDescriptor": {},
	"TemplateStringsArray": {}, "JSON": {}, "Math": {}, "Intl": {},
	"Reflect": {}, "Atomics": {}, "Proxy": {}, "ProxyHandler": {},

	// Errors
	"Error": {}, "EvalError": {}, "RangeError": {}, "ReferenceError": {},
	"SyntaxError": {}, "TypeError": {}, "URIError": {}, "AggregateError": {},
	"ErrorOptions": {},

	// Collections
	"Array": {}, "ReadonlyArray": {}, "ArrayLike": {}, "ConcatArray": {},
	"Map": {}, "ReadonlyMap": {}, "WeakMap": {}, "Set": {}, "ReadonlySet": {},
	"WeakSet": {}, "WeakRef": {}, "FinalizationRegistry": {},

	// Iteration and async
	"Iterable": {}, "Iterator": {}, "IterableIterator": {}, "IteratorResult": {},
	"IteratorYieldResult": {}, "IteratorReturnResult": {},
	"AsyncIterable": {}, "AsyncIterator": {}, "AsyncIterableIterator": {},
	"Generator": {}, "AsyncGenerator": {}, "GeneratorFunction": {},
	"AsyncGeneratorFunction": {}, "Promise": {}, "PromiseLike": {},
	"PromiseConstructorLike": {}, "PromiseSettledResult": {},
	"PromiseFulfilledResult": {}, "PromiseRejectedResult": {},

	// Dates, text and binary data
	"Date": {}, "RegExp": {}, "RegExpMatchArray": {}, "RegExpExecArray": {},
	"ArrayBuffer": {}, "ArrayBufferLike": {}, "ArrayBufferView": {},
	"SharedArrayBuffer": {}, "DataView": {},
	"Int8Array": {}, "Uint8Array": {}, "Uint8ClampedArray": {},
	"Int16Array": {}, "Uint16Array": {}, "Int32Array": {}, "Uint32Array": {},
	"Float32Array": {}, "Float64Array": {}, "BigInt64Array": {},
	"BigUint64Array": {},

	// Decorators
	"ClassDecorator": {}, "PropertyDecorator": {}, "MethodDecorator": {},
	"ParameterDecorator": {}, "ClassDecoratorContext": {},
	"ClassMethodDecoratorContext": {}, "ClassFieldDecoratorContext": {},
	"DecoratorContext": {},

	// Constructors
	"ObjectConstructor": {}, "FunctionConstructor": {}, "StringConstructor": {},
	"NumberConstructor": {}, "BooleanConstructor": {}, "ArrayConstructor": {},
	"DateConstructor": {}, "RegExpConstructor": {}, "ErrorConstructor": {},
	"PromiseConstructor": {}, "MapConstructor": {}, "SetConstructor": {},
	"SymbolConstructor": {},
}

// isGlobalType reports whether name is provided by the standard library.
func isGlobalType(name string) bool {
	_, ok := globalTypes[name]
	return ok
}
