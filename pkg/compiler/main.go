// Package compiler provides the front end and lowering for a small C-like
// language: a lexer, a recursive-descent parser, a semantic checker that
// builds the symbol table, and the visitor that emits three-address code.
//
// Pipeline: source → Lex → Parse → Check → Lower → optimize → TAC text
package compiler
