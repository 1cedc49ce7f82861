// Package extract locates table references in SQL text.
//
// It implements the dependency-extraction boundary consumed by the lineage
// service: given a resource's defining SQL, return the names of the tables
// it reads. Extraction is deliberately shallow - a lexer plus a reference
// scanner rather than a full parser - because it must be best-effort: any
// SQL it cannot make sense of yields whatever references were recognized,
// never an error that could block resource registration.
package extract

import (
	"context"
	"log/slog"
	"strings"
)

// SQLExtractor implements core.Extractor over the built-in lexer.
type SQLExtractor struct {
	logger *slog.Logger
}

// NewSQLExtractor creates an extractor. If logger is nil, a discard logger
// is used.
func NewSQLExtractor(logger *slog.Logger) *SQLExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLExtractor{logger: logger}
}

// Extract returns the table names referenced by sql in first-seen order,
// deduplicated, with CTE names filtered out. Qualified names keep their
// catalog.schema.table form. The dialect hint is accepted for parity with
// external extractor services; the built-in scanner treats all dialects'
// quoting styles uniformly.
func (x *SQLExtractor) Extract(ctx context.Context, sql, dialect string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := tokenize(sql)
	ctes := collectCTENames(tokens)
	refs := scanReferences(tokens, ctes)

	x.logger.Debug("extracted dependencies",
		slog.String("dialect", dialect),
		slog.Int("count", len(refs)))

	return refs, nil
}

// collectCTENames gathers the names declared in WITH clauses so references
// to them are not reported as external tables. Unquoted CTE names are
// matched case-insensitively, following common dialect folding rules.
func collectCTENames(tokens []token) map[string]bool {
	ctes := make(map[string]bool)

	for i := range tokens {
		if tokens[i].typ != tokWith {
			continue
		}
		j := i + 1
		if at(tokens, j).typ == tokRecursive {
			j++
		}
		for {
			name := at(tokens, j)
			if name.typ != tokIdent {
				break
			}
			j++
			if at(tokens, j).typ == tokLParen {
				j = skipParens(tokens, j) // optional column list
			}
			if at(tokens, j).typ != tokAs {
				break
			}
			j++
			if at(tokens, j).typ != tokLParen {
				break
			}
			ctes[strings.ToLower(name.literal)] = true
			j = skipParens(tokens, j)
			if at(tokens, j).typ != tokComma {
				break
			}
			j++
		}
	}

	return ctes
}

// scanReferences walks the token stream and captures the qualified name
// following each FROM and JOIN, plus comma-separated entries of an active
// FROM list. Derived tables and table functions are skipped; their inner
// queries are scanned as the walk continues through them.
func scanReferences(tokens []token, ctes map[string]bool) []string {
	var refs []string
	seen := make(map[string]bool)

	depth := 0
	fromDepth := -1 // paren depth of the active FROM list, -1 when none

	capture := func(i int) int {
		name, quoted, end := qualifiedName(tokens, i)
		if name == "" {
			return i - 1
		}
		// A name directly followed by '(' is a table function, not a table.
		if at(tokens, end+1).typ == tokLParen {
			return end
		}
		if !strings.Contains(name, ".") && !quoted && ctes[strings.ToLower(name)] {
			return end
		}
		if !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
		return end
	}

	for i := 0; i < len(tokens); i++ {
		switch tokens[i].typ {
		case tokLParen:
			depth++
		case tokRParen:
			depth--
			if fromDepth > depth {
				fromDepth = -1
			}
		case tokFrom:
			i = capture(i + 1)
			fromDepth = depth
		case tokJoin:
			i = capture(i + 1)
		case tokComma:
			if depth == fromDepth {
				i = capture(i + 1)
			}
		case tokWhere, tokGroup, tokOrder, tokHaving, tokLimit, tokUnion, tokOn, tokUsing, tokSelect:
			if fromDepth == depth {
				fromDepth = -1
			}
		}
	}

	return refs
}

// qualifiedName reads ident (DOT ident)* starting at i. It returns the
// dotted name, whether any part was quoted, and the index of the last
// consumed token. An empty name means no identifier starts at i.
func qualifiedName(tokens []token, i int) (string, bool, int) {
	first := at(tokens, i)
	if first.typ != tokIdent {
		return "", false, i
	}

	parts := []string{first.literal}
	quoted := first.quoted
	end := i

	for at(tokens, end+1).typ == tokDot && at(tokens, end+2).typ == tokIdent {
		next := at(tokens, end+2)
		parts = append(parts, next.literal)
		quoted = quoted || next.quoted
		end += 2
	}

	return strings.Join(parts, "."), quoted, end
}

// skipParens advances past a balanced paren group opening at i and returns
// the index just after the closing paren.
func skipParens(tokens []token, i int) int {
	depth := 0
	for ; i < len(tokens); i++ {
		switch tokens[i].typ {
		case tokLParen:
			depth++
		case tokRParen:
			depth--
			if depth == 0 {
				return i + 1
			}
		case tokEOF:
			return i
		}
	}
	return i
}

// at returns tokens[i], or an EOF token past the end.
func at(tokens []token, i int) token {
	if i < 0 || i >= len(tokens) {
		return token{typ: tokEOF}
	}
	return tokens[i]
}
