// Package main is a self-contained demo of the load-then-serve flow: it
// loads a CSV into an in-memory store and prints the records, optionally
// filtered by a search term.
//
//	go run . Schools.csv            # print every record
//	go run . Schools.csv academy    # print records matching "academy"
//
// The real entrypoints are cmd/server (HTTP) and cmd/cli (loader).
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"schoolbook/internal/db"
	"schoolbook/internal/db/repository"
	"schoolbook/internal/domain"
	"schoolbook/internal/service/ingestion"
	"schoolbook/internal/service/query"
)

func printRows(rs domain.RowSet) {
	fmt.Println(strings.Join(rs.Columns, "\t"))
	fmt.Println(strings.Repeat("-", 100))

	for _, row := range rs.Rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
}

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: schoolbook <csv> [search term]")
		os.Exit(2)
	}
	csvPath := os.Args[1]

	nameColumn := os.Getenv("NAME_COLUMN")
	if nameColumn == "" {
		nameColumn = "SCHOOL_NM"
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dataDB, err := db.OpenDuckDB("")
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer dataDB.Close()

	store := repository.NewRecordStore(dataDB)

	loader := ingestion.NewService(store, nil, logger)
	run, err := loader.Load(ctx, domain.Dataset{Name: "schools", CSVPath: csvPath})
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	fmt.Printf("Loaded %d rows (%d columns) from %s\n\n", run.RowCount, run.ColumnCount, csvPath)

	querySvc := query.NewService(store, nil, nameColumn, logger)

	filter := query.Filter{}
	if len(os.Args) > 2 {
		filter.Name = strings.Join(os.Args[2:], " ")
	}

	rs, err := querySvc.Records(ctx, "schools", filter)
	if err != nil {
		log.Fatalf("query: %v", err)
	}

	printRows(rs)
	fmt.Printf("\n(%d rows)\n", rs.RowCount)
}
