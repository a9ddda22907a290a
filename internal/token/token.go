// Package token defines the fixed enumeration of lexical token kinds shared
// by the lexer, macro expander and parser, plus the keyword map used to
// classify identifiers.
package token

import "github.com/linxc-lang/linxc/internal/logger"

type T uint8

// If you add a new token, remember to add it to "kindToString" too.
const (
	TEndOfFile T = iota
	TInvalid

	TNewline
	TIdentifier
	TMacroString // the "<...>" form that only appears after "#include"
	TStringLiteral
	TCharLiteral
	TIntegerLiteral
	TFloatLiteral

	// Line and block comments have token kinds so the lexer's "every byte
	// belongs to exactly one span" guarantee (spec.md §4.1) holds; Lexer.Next
	// lexes past them without returning them, so the macro expander and
	// parser never see them.
	TLineComment
	TBlockComment

	// Punctuation
	TBang
	TBangEqual
	TPipe
	TPipePipe
	TPipeEqual
	TEqual
	TEqualEqual
	TLParen
	TRParen
	TLBrace
	TRBrace
	TLBracket
	TRBracket
	TPeriod
	TEllipsis
	TCaret
	TCaretEqual
	TPlus
	TPlusPlus
	TPlusEqual
	TMinus
	TMinusMinus
	TMinusEqual
	TAsterisk
	TAsteriskEqual
	TPercent
	TPercentEqual
	TArrow
	TColon
	TColonColon
	TSemicolon
	TSlash
	TSlashEqual
	TComma
	TAmpersand
	TAmpersandAmpersand
	TAmpersandEqual
	TQuestionMark
	TLess
	TLessEqual
	TLessLess
	TLessLessEqual
	TGreater
	TGreaterEqual
	TGreaterGreater
	TGreaterGreaterEqual
	TTilde
	THash
	THashHash

	// Keywords
	TTrue
	TFalse
	TAuto
	TBreak
	TCase
	TChar
	TConst
	TContinue
	TDefault
	TDo
	TDouble
	TElse
	TEnum
	TExtern
	TFloat
	TFor
	TGoto
	TIf
	TInt
	TLong
	TRegister
	TReturn
	TShort
	TSigned
	TStatic
	TStruct
	TSizeof
	TTypeof
	TNameof
	TOperatorKeyword

	TAttribute
	TTrait
	TUseLang
	TEndUseLang

	TSwitch
	TTypedef
	TUnion
	TTemplate
	TTypename
	TU8
	TU16
	TU32
	TU64
	TI8
	TI16
	TI32
	TI64
	TVoid
	TVolatile
	TWhile
	TDelegate
	TNamespace

	TBool
	TComplex
	TImaginary
	TInline
	TRestrict

	TAlignas
	TAlignof
	TAtomic
	TNoreturn
	TThreadLocal

	// Preprocessor keywords. Only honored when the lexer is on a
	// preprocessor line (spec.md §4.1).
	TPPInclude
	TPPDefine
	TPPIfdef
	TPPIfndef
	TPPError
	TPPPragma
	TPPEndif
	TPPUndef
)

var Keywords = map[string]T{
	"true":     TTrue,
	"false":    TFalse,
	"auto":     TAuto,
	"break":    TBreak,
	"case":     TCase,
	"char":     TChar,
	"const":    TConst,
	"continue": TContinue,
	"default":  TDefault,
	"do":       TDo,
	"double":   TDouble,
	"else":     TElse,
	"enum":     TEnum,
	"extern":   TExtern,
	"float":    TFloat,
	"for":      TFor,
	"goto":     TGoto,
	"if":       TIf,
	"int":      TInt,
	"long":     TLong,
	"register": TRegister,
	"return":   TReturn,
	"short":    TShort,
	"signed":   TSigned,
	"static":   TStatic,
	"struct":   TStruct,
	"sizeof":   TSizeof,
	"typeof":   TTypeof,
	"nameof":   TNameof,
	"operator": TOperatorKeyword,

	"attribute":   TAttribute,
	"trait":       TTrait,
	"uselang":     TUseLang,
	"enduselang":  TEndUseLang,

	"switch":    TSwitch,
	"typedef":   TTypedef,
	"union":     TUnion,
	"template":  TTemplate,
	"typename":  TTypename,
	"u8":        TU8,
	"u16":       TU16,
	"u32":       TU32,
	"u64":       TU64,
	"i8":        TI8,
	"i16":       TI16,
	"i32":       TI32,
	"i64":       TI64,
	"void":      TVoid,
	"volatile":  TVolatile,
	"while":     TWhile,
	"delegate":  TDelegate,
	"namespace": TNamespace,

	"bool":      TBool,
	"complex":   TComplex,
	"imaginary": TImaginary,
	"inline":    TInline,
	"restrict":  TRestrict,

	"alignas":     TAlignas,
	"alignof":     TAlignof,
	"atomic":      TAtomic,
	"noreturn":    TNoreturn,
	"thread_local": TThreadLocal,
}

// PreprocessorKeywords is only consulted when the current line began with a
// bare "#" (spec.md §4.1): "include", "define", "ifdef", "ifndef", "endif",
// "error", "pragma", plus "undef" which the original lexer also recognizes.
var PreprocessorKeywords = map[string]T{
	"include": TPPInclude,
	"define":  TPPDefine,
	"ifdef":   TPPIfdef,
	"ifndef":  TPPIfndef,
	"error":   TPPError,
	"pragma":  TPPPragma,
	"endif":   TPPEndif,
	"undef":   TPPUndef,
}

// PrimitiveKeywords names the eight integer primitives plus float, double,
// char, void and bool — the tokens that begin a TypeRef in the expression
// parser's primary position (spec.md §4.4).
var PrimitiveKeywords = map[T]string{
	TU8: "u8", TU16: "u16", TU32: "u32", TU64: "u64",
	TI8: "i8", TI16: "i16", TI32: "i32", TI64: "i64",
	TFloat: "float", TDouble: "double", TChar: "char",
	TVoid: "void", TBool: "bool",
}

func (t T) IsPrimitiveKeyword() bool {
	_, ok := PrimitiveKeywords[t]
	return ok
}

var kindToString = map[T]string{
	TEndOfFile:     "end of file",
	TNewline:       "newline",
	TIdentifier:    "identifier",
	TMacroString:   "macro string",
	TStringLiteral: "string literal",
	TCharLiteral:   "character literal",
	TIntegerLiteral: "integer literal",
	TFloatLiteral:  "float literal",
	TBang:          "!",
	TBangEqual:     "!=",
	TPipe:          "|",
	TPipePipe:      "||",
	TPipeEqual:     "|=",
	TEqual:         "=",
	TEqualEqual:    "==",
	TLParen:        "(",
	TRParen:        ")",
	TLBrace:        "{",
	TRBrace:        "}",
	TLBracket:      "[",
	TRBracket:      "]",
	TPeriod:        ".",
	TEllipsis:      "...",
	TCaret:         "^",
	TCaretEqual:    "^=",
	TPlus:          "+",
	TPlusPlus:      "++",
	TPlusEqual:     "+=",
	TMinus:         "-",
	TMinusMinus:    "--",
	TMinusEqual:    "-=",
	TAsterisk:      "*",
	TAsteriskEqual: "*=",
	TPercent:       "%",
	TPercentEqual:  "%=",
	TArrow:         "->",
	TColon:         ":",
	TColonColon:    "::",
	TSemicolon:     ";",
	TSlash:         "/",
	TSlashEqual:    "/=",
	TComma:         ",",
	TAmpersand:     "&",
	TAmpersandAmpersand: "&&",
	TAmpersandEqual: "&=",
	TQuestionMark:  "?",
	TLess:          "<",
	TLessEqual:     "<=",
	TLessLess:      "<<",
	TLessLessEqual: "<<=",
	TGreater:       ">",
	TGreaterEqual:  ">=",
	TGreaterGreater: ">>",
	TGreaterGreaterEqual: ">>=",
	TTilde:         "~",
	THash:          "#",
	THashHash:      "##",
}

func (t T) String() string {
	if s, ok := kindToString[t]; ok {
		return s
	}
	for name, kw := range Keywords {
		if kw == t {
			return name
		}
	}
	for name, kw := range PreprocessorKeywords {
		if kw == t {
			return "#" + name
		}
	}
	return "token"
}

// Token is deliberately small: the span is a half-open byte range into the
// owning Source, and string/number contents are materialized lazily by the
// lexer from that span rather than stored eagerly (spec.md §3).
type Token struct {
	Range             logger.Range
	Kind              T
	HasNewlineBefore  bool
}

func (t Token) Raw(source *logger.Source) string {
	return source.TextForRange(t.Range)
}
