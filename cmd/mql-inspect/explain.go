package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
	"github.com/grafana/mqlmatch/pkg/mql/match"
	"github.com/grafana/mqlmatch/pkg/mql/rangequery"
	"github.com/grafana/mqlmatch/pkg/mql/types"
	util_log "github.com/grafana/mqlmatch/pkg/util/log"
)

// explainCommand prints how the range operators of a filter translate to
// index ranges.
type explainCommand struct {
	filter *string
}

type bounder interface {
	Bounds() (types.RangeBound[types.Point], error)
}

func (cmd *explainCommand) run(*kingpin.ParseContext) error {
	stage, err := compileFilter(*cmd.filter)
	util_log.CheckFatal("compiling filter", err, util_log.Logger)

	bold := color.New(color.Bold)
	bold.Printf("Filter: %s\n", stage)
	explainClause(stage.Clause(), 1)
	return nil
}

func explainClause(c match.Clause, depth int) {
	indent := fmt.Sprintf("%*s", depth*4, "")

	switch c := c.(type) {
	case *match.AndClause:
		fmt.Println(indent + "$and")
		explainClauses(c.Clauses, depth+1)
	case *match.OrClause:
		fmt.Println(indent + "$or")
		explainClauses(c.Clauses, depth+1)
	case *match.NorClause:
		fmt.Println(indent + "$nor")
		explainClauses(c.Clauses, depth+1)
	case *match.SimpleClause:
		for _, op := range c.Operators {
			explainOperator(indent, c.Path, op)
		}
	}
}

func explainClauses(cs []match.Clause, depth int) {
	for _, c := range cs {
		explainClause(c, depth)
	}
}

func explainOperator(indent string, path fieldpath.FieldPath, op match.Operator) {
	b, ok := op.(bounder)
	if !ok {
		fmt.Printf("%s%s %s: %s\n", indent, path, op, color.YellowString("not a range"))
		return
	}

	bound, err := b.Bounds()
	if err != nil {
		fmt.Printf("%s%s %s: %s\n", indent, path, op, color.RedString("%v", err))
		return
	}
	q, err := rangequery.FromBounds(path, bound)
	if err != nil {
		fmt.Printf("%s%s %s: %s\n", indent, path, op, color.YellowString("%v", err))
		return
	}

	fmt.Printf("%s%s\n", indent, q)
	switch q := q.(type) {
	case *rangequery.NumericQuery:
		printRange(indent, "int64", q.Int64Range)
		printRange(indent, "double", q.DoubleRange)
	case *rangequery.DateQuery:
		printRange(indent, "dateTime", q.MillisRange)
	}
}

func printRange(indent, namespace string, fn func() (rangequery.Int64Range, bool)) {
	r, ok := fn()
	if !ok {
		fmt.Printf("%s    %s: %s\n", indent, color.CyanString(namespace), color.YellowString("empty"))
		return
	}
	fmt.Printf("%s    %s: %s\n", indent, color.CyanString(namespace), r)
}

func addExplainCommand(app *kingpin.Application) {
	cmd := &explainCommand{}
	explain := app.Command("explain", "Print the index ranges of the range operators in a filter.").Action(cmd.run)
	cmd.filter = explain.Arg("filter", "The filter document in Extended JSON.").Required().String()
}
