// Command trsgen reads a table-design document (Excel, CSV or TSV) and
// generates a dbt model from it: a two-stage transformation SQL template and,
// optionally, a models.yml schema fragment documenting each column.
//
// The design document must carry a header row naming its columns. The
// physical-name and data-type columns can be designated explicitly with
// -physical and -type, or detected from the headers with -auto.
//
// Typical usage:
//
//	trsgen -input design.xlsx -auto -schema raw -table customers_raw \
//	       -model stg_customers -comments -out-sql stg_customers.sql \
//	       -out-yaml stg_customers.yml
//
// When -out-sql or -out-yaml is empty the artifact goes to stdout, SQL first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"tablekit/internal/dbtgen"
	"tablekit/internal/logging"
	"tablekit/internal/table"
)

func main() {
	var (
		inputPath   string
		sheet       string
		schema      string
		sourceTable string
		model       string
		description string
		physical    string
		typeCol     string
		logical     string
		descCol     string
		auto        bool
		comments    bool
		rows        int
		outSQL      string
		outYAML     string
		listSheets  bool
		logLevel    string
		logFormat   string
	)

	flag.StringVar(&inputPath, "input", "", "design document path (.xlsx, .xls, .csv, .tsv, optionally .gz)")
	flag.StringVar(&sheet, "sheet", "", "Excel worksheet name (default: first sheet)")
	flag.StringVar(&schema, "schema", "raw", "dbt source schema for the source() reference")
	flag.StringVar(&sourceTable, "table", "", "dbt source table for the source() reference")
	flag.StringVar(&model, "model", "", "generated model name (heads the schema fragment)")
	flag.StringVar(&description, "description", "", "model description for the schema fragment")
	flag.StringVar(&physical, "physical", "", "design column holding physical column names")
	flag.StringVar(&typeCol, "type", "", "design column holding declared data types")
	flag.StringVar(&logical, "logical", "", "design column holding logical names (optional)")
	flag.StringVar(&descCol, "desc", "", "design column holding descriptions (optional)")
	flag.BoolVar(&auto, "auto", false, "detect role columns from the design headers")
	flag.BoolVar(&comments, "comments", false, "also generate the models.yml schema fragment")
	flag.IntVar(&rows, "rows", 0, "read at most this many design rows (0 = all)")
	flag.StringVar(&outSQL, "out-sql", "", "write the model SQL here (default: stdout)")
	flag.StringVar(&outYAML, "out-yaml", "", "write the schema fragment here (default: stdout)")
	flag.BoolVar(&listSheets, "list-sheets", false, "list the worksheets of an Excel input and exit")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&logFormat, "log-format", "text", "log format: text, json")

	flag.Parse()

	logging.Setup(logLevel, logFormat)

	if inputPath == "" {
		fatalf("trsgen: -input is required")
	}

	if listSheets {
		names, err := table.SheetNames(inputPath)
		if err != nil {
			fatalf("trsgen: %v", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	ctx := context.Background()
	start := time.Now()

	opts := table.ReadOptions{Sheet: sheet, HasHeader: true}
	var (
		t   *table.Table
		err error
	)
	if rows > 0 {
		t, err = table.ReadPreview(ctx, inputPath, opts, rows)
	} else {
		t, err = table.Read(ctx, inputPath, opts)
	}
	if err != nil {
		fatalf("trsgen: read design document: %v", err)
	}

	roles := dbtgen.Roles{Physical: physical, Type: typeCol, Logical: logical, Desc: descCol}
	if auto {
		detected := dbtgen.DetectRoles(t.Columns)
		// Explicit designations win over detection.
		if roles.Physical == "" {
			roles.Physical = detected.Physical
		}
		if roles.Type == "" {
			roles.Type = detected.Type
		}
		if roles.Logical == "" {
			roles.Logical = detected.Logical
		}
		if roles.Desc == "" {
			roles.Desc = detected.Desc
		}
		slog.Debug("detected roles",
			"physical", roles.Physical, "type", roles.Type,
			"logical", roles.Logical, "desc", roles.Desc)
	}

	if model == "" {
		model = "transformed_model"
	}
	if sourceTable == "" {
		sourceTable = model + "_raw"
	}

	res, err := dbtgen.Generate(t, roles, dbtgen.Options{
		SourceSchema:     schema,
		SourceTable:      sourceTable,
		ModelName:        model,
		ModelDescription: description,
		IncludeComments:  comments,
	})
	if err != nil {
		fatalf("trsgen: %v", err)
	}

	if res.SchemaYAML != "" {
		if err := dbtgen.CheckYAML(res.SchemaYAML); err != nil {
			fatalf("trsgen: %v", err)
		}
	}

	if err := emit(outSQL, res.SQL); err != nil {
		fatalf("trsgen: write sql: %v", err)
	}
	if res.SchemaYAML != "" {
		if err := emit(outYAML, res.SchemaYAML); err != nil {
			fatalf("trsgen: write schema fragment: %v", err)
		}
	}

	slog.Info("generated model",
		"model", model,
		"columns", res.ColumnCount,
		"schema_fragment", res.SchemaYAML != "",
		"elapsed", time.Since(start).Truncate(time.Millisecond))
}

// emit writes content to path, or to stdout when path is empty. A trailing
// newline is added so artifacts concatenate cleanly on stdout.
func emit(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	return os.WriteFile(path, []byte(content+"\n"), 0o644)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
