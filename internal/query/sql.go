package query

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Where renders predicates as a Postgres boolean expression using $n
// placeholders numbered from argStart. No predicates render as TRUE.
func Where(preds []Predicate, argStart int) (string, []any) {
	if len(preds) == 0 {
		return "TRUE", nil
	}
	clauses := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", argStart+len(args)-1)
	}

	for _, p := range preds {
		col := p.Column
		switch p.Operator {
		case OpEq:
			clauses = append(clauses, col+" = "+next(p.Value))
		case OpNe:
			clauses = append(clauses, col+" <> "+next(p.Value))
		case OpLt:
			clauses = append(clauses, col+" < "+next(p.Value))
		case OpLte:
			clauses = append(clauses, col+" <= "+next(p.Value))
		case OpGt:
			clauses = append(clauses, col+" > "+next(p.Value))
		case OpGte:
			clauses = append(clauses, col+" >= "+next(p.Value))
		case OpContains:
			clauses = append(clauses, col+"::text ILIKE "+next("%"+likeEscaper.Replace(p.Value.(string))+"%"))
		case OpStartsWith:
			clauses = append(clauses, col+"::text ILIKE "+next(likeEscaper.Replace(p.Value.(string))+"%"))
		case OpIn:
			clauses = append(clauses, col+" = ANY("+next(arrayArg(p.Value))+")")
		case OpIsNull:
			clauses = append(clauses, col+" IS NULL")
		case OpIsNotNull:
			clauses = append(clauses, col+" IS NOT NULL")
		}
	}
	return strings.Join(clauses, " AND "), args
}

func arrayArg(v any) any {
	switch list := v.(type) {
	case []uuid.UUID:
		ids := make([]string, len(list))
		for i, id := range list {
			ids[i] = id.String()
		}
		return pq.Array(ids)
	default:
		return pq.Array(list)
	}
}

// OrderBy renders compiled sort keys as an ORDER BY list.
func OrderBy(orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = o.Column + " " + string(o.Direction)
	}
	return strings.Join(parts, ", ")
}
