package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/grafana/mqlmatch/pkg/mql"
	"github.com/grafana/mqlmatch/pkg/mql/match"
	util_log "github.com/grafana/mqlmatch/pkg/util/log"
)

// matchCommand prints the documents in files matching a filter.
type matchCommand struct {
	cfg    *mql.Config
	filter *string
	count  *bool
	files  *[]string
}

func (cmd *matchCommand) run(*kingpin.ParseContext) error {
	stage, err := compileFilter(*cmd.filter)
	util_log.CheckFatal("compiling filter", err, util_log.Logger)

	f := match.NewFilterer(cmd.cfg.Match, util_log.Logger, nil)
	bold := color.New(color.Bold)
	bold.Printf("Filter: %s\n", stage)

	for _, name := range *cmd.files {
		docs, err := readDocumentsFile(name)
		util_log.CheckFatal("reading documents", err, util_log.Logger)
		matched, err := f.Filter(context.Background(), stage, docs)
		util_log.CheckFatal("filtering "+name, err, util_log.Logger)
		cmd.printMatches(name, docs, matched)
	}
	return nil
}

func (cmd *matchCommand) printMatches(name string, docs []bsoncore.Document, matched []int) {
	var size uint64
	for _, i := range matched {
		size += uint64(len(docs[i]))
	}

	bold := color.New(color.Bold)
	bold.Printf("%s: matched %s of %s documents (%v)\n",
		name,
		humanize.Comma(int64(len(matched))),
		humanize.Comma(int64(len(docs))),
		humanize.Bytes(size),
	)
	if *cmd.count {
		return
	}
	for _, i := range matched {
		fmt.Printf("\t%s %s\n", color.GreenString("%d:", i), bson.Raw(docs[i]))
	}
}

// compileFilter parses and compiles an Extended JSON filter document.
func compileFilter(text string) (*match.Stage, error) {
	doc, err := parseDocument([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	clause, err := match.ParseFilter(doc)
	if err != nil {
		return nil, err
	}
	return match.Compile(clause)
}

func addMatchCommand(app *kingpin.Application, cfg *mql.Config) {
	cmd := &matchCommand{cfg: cfg}
	matchCmd := app.Command("match", "Print the Extended JSON documents, one per line, matching a filter.").Action(cmd.run)
	cmd.filter = matchCmd.Flag("filter", "The filter document in Extended JSON.").Short('f').Required().String()
	cmd.count = matchCmd.Flag("count", "Only print the number of matching documents.").Bool()
	cmd.files = matchCmd.Arg("file", "The files to filter.").Required().ExistingFiles()
}
