package main

import (
	"fmt"
	"slices"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/grafana/mqlmatch/pkg/mql"
	"github.com/grafana/mqlmatch/pkg/mql/encoding"
	util_log "github.com/grafana/mqlmatch/pkg/util/log"
)

// encodeCommand prints the index fields of each document in files.
type encodeCommand struct {
	cfg   *mql.Config
	files *[]string
}

func (cmd *encodeCommand) run(*kingpin.ParseContext) error {
	enc := encoding.NewEncoder(cmd.cfg.Encoder, util_log.Logger, nil)

	var total encoding.Stats
	for _, name := range *cmd.files {
		docs, err := readDocumentsFile(name)
		util_log.CheckFatal("reading documents", err, util_log.Logger)
		for i, doc := range docs {
			stats := cmd.printDocument(enc, name, i, doc)
			total.Values += stats.Values
			total.Encoded += stats.Encoded
			for m, n := range stats.Fallbacks {
				if total.Fallbacks == nil {
					total.Fallbacks = make(map[encoding.FallbackMarker]int)
				}
				total.Fallbacks[m] += n
			}
		}
	}

	bold := color.New(color.Bold)
	bold.Println("Total:")
	printStats(total)
	return nil
}

func (cmd *encodeCommand) printDocument(enc *encoding.Encoder, name string, i int, doc bsoncore.Document) encoding.Stats {
	var acc encoding.Document
	stats, err := enc.EncodeDocument(doc, &acc)
	util_log.CheckFatal(fmt.Sprintf("encoding %s document %d", name, i), err, util_log.Logger)

	bold := color.New(color.Bold)
	bold.Printf("%s document %d (%v):\n", name, i, humanize.Bytes(uint64(len(doc))))
	for _, f := range acc.Fields {
		field, path, err := encoding.ParseFieldName(f.Name)
		util_log.CheckFatal("parsing field name", err, util_log.Logger)
		fmt.Printf("\t%s %s %s\n", color.CyanString("%-14s", field), path, formatField(field, f))
	}
	printStats(stats)
	return stats
}

func formatField(field encoding.MqlField, f encoding.IndexableField) string {
	switch {
	case field == encoding.MqlFieldFallbackMarker:
		m, err := encoding.ParseFallbackMarker(f.Long)
		if err != nil {
			return color.RedString("%d", f.Long)
		}
		return color.YellowString("%s", m)
	case field == encoding.MqlFieldDouble && f.Kind.IsNumeric():
		return fmt.Sprintf("%s=%v", f.Kind, encoding.FromSortableLong(f.Long))
	case f.Kind.IsNumeric():
		return fmt.Sprintf("%s=%d", f.Kind, f.Long)
	case field == encoding.MqlFieldProjection:
		return fmt.Sprintf("%s (%v)", f.Kind, humanize.Bytes(uint64(len(f.Bytes))))
	default:
		return fmt.Sprintf("%s=%q", f.Kind, f.Bytes)
	}
}

func printStats(stats encoding.Stats) {
	markers := make([]encoding.FallbackMarker, 0, len(stats.Fallbacks))
	for m := range stats.Fallbacks {
		markers = append(markers, m)
	}
	slices.Sort(markers)

	fmt.Printf("\tvalues: %s, encoded: %s, fallbacks:", humanize.Comma(int64(stats.Values)), humanize.Comma(int64(stats.Encoded)))
	if len(markers) == 0 {
		fmt.Print(" none")
	}
	for _, m := range markers {
		fmt.Printf(" %s=%d", m, stats.Fallbacks[m])
	}
	fmt.Println()
}

func addEncodeCommand(app *kingpin.Application, cfg *mql.Config) {
	cmd := &encodeCommand{cfg: cfg}
	encode := app.Command("encode", "Print the index fields of Extended JSON documents, one per line.").Action(cmd.run)
	cmd.files = encode.Arg("file", "The files to encode.").Required().ExistingFiles()
}
