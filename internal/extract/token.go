package extract

// tokenType classifies a lexical token. The extractor only distinguishes
// the token shapes it needs to find table references; every other SQL
// construct lexes to tokOther.
type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokString
	tokDot
	tokComma
	tokLParen
	tokRParen
	tokOther

	// Keywords the reference scanner dispatches on.
	tokFrom
	tokJoin
	tokWith
	tokAs
	tokOn
	tokUsing
	tokSelect
	tokWhere
	tokGroup
	tokOrder
	tokHaving
	tokLimit
	tokUnion
	tokRecursive
	tokLateral
)

// token is a lexical token. Quoted identifiers carry their unquoted literal
// and the quoted flag, so case-sensitive names survive extraction intact.
type token struct {
	typ     tokenType
	literal string
	quoted  bool
}

// keywords maps lowercased identifiers to keyword token types.
var keywords = map[string]tokenType{
	"from":      tokFrom,
	"join":      tokJoin,
	"with":      tokWith,
	"as":        tokAs,
	"on":        tokOn,
	"using":     tokUsing,
	"select":    tokSelect,
	"where":     tokWhere,
	"group":     tokGroup,
	"order":     tokOrder,
	"having":    tokHaving,
	"limit":     tokLimit,
	"union":     tokUnion,
	"recursive": tokRecursive,
	"lateral":   tokLateral,
}

// lookupIdent returns the keyword type for lowered, or tokIdent.
func lookupIdent(lowered string) tokenType {
	if t, ok := keywords[lowered]; ok {
		return t
	}
	return tokIdent
}
