package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"kbsync/internal/config"
	"kbsync/internal/customs"
	"kbsync/internal/logging"
	"kbsync/internal/report"
	"kbsync/internal/shiprocket"
	"kbsync/internal/storage"
)

const dateLayout = "2006-01-02"

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "shiprocket:sync":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		from := fs.String("from", "", "range start YYYY-MM-DD")
		to := fs.String("to", "", "range end YYYY-MM-DD")
		lookback := fs.Int("lookback-days", cfg.SyncLookbackDays, "days back from today when --from is omitted")
		noCommit := fs.Bool("no-commit", false, "dry run, roll back all writes")
		_ = fs.Parse(os.Args[2:])

		fromDate, toDate := resolveRange(*from, *to, *lookback)
		svc := shiprocket.NewSyncService(db, cfg)
		result, err := svc.Sync(context.Background(), fromDate, toDate, !*noCommit)
		fmt.Printf("sync done trace=%s rows=%d deleted=%d inserted=%d\n",
			result.TraceID, result.Rows, result.Deleted, result.Inserted)
		must(err)
	case "customs:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "ledger file (.csv or Excel)")
		noCommit := fs.Bool("no-commit", false, "dry run, roll back all writes")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		svc := customs.NewImportService(db)
		result, err := svc.ImportFile(*file, !*noCommit)
		fmt.Printf("import done trace=%s rows=%d dropped=%d deleted=%d inserted=%d\n",
			result.TraceID, result.Rows, result.Dropped, result.Deleted, result.Inserted)
		must(err)
	case "customs:import-mapping":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "importer mapping sheet")
		noCommit := fs.Bool("no-commit", false, "dry run, roll back all writes")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		svc := customs.NewImportService(db)
		inserted, err := svc.ImportMapping(*file, !*noCommit)
		must(err)
		fmt.Printf("mapping import done rows=%d\n", inserted)
	case "customs:reclassify":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		noCommit := fs.Bool("no-commit", false, "dry run, roll back all writes")
		_ = fs.Parse(os.Args[2:])

		svc := customs.NewImportService(db)
		updated, err := svc.Reclassify(!*noCommit)
		must(err)
		fmt.Printf("reclassify done rows=%d\n", updated)
	case "customs:watch":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := customs.NewWatcher(customs.NewImportService(db), db, cfg)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			must(err)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		table := fs.String("table", "", "table to export")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*table) == "" {
			must(fmt.Errorf("--table is required"))
		}
		path := *out
		if strings.TrimSpace(path) == "" {
			path = filepath.Join(cfg.OutputDir, *table+".xlsx")
		}

		columns, rows, err := db.TableRows(*table)
		must(err)
		must(report.ExportXLSX(columns, rows, path))
		fmt.Printf("exported %d rows to %s\n", len(rows), path)
	case "db:count":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		table := fs.String("table", "", "table to count")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*table) == "" {
			must(fmt.Errorf("--table is required"))
		}

		count, err := db.RowCount(*table)
		must(err)
		fmt.Printf("%s rows=%d\n", *table, count)
	case "db:truncate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		table := fs.String("table", "", "table to truncate")
		commit := fs.Bool("commit", false, "actually delete; defaults to dry run")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*table) == "" {
			must(fmt.Errorf("--table is required"))
		}

		deleted, err := db.TruncateTable(*table, *commit)
		must(err)
		if *commit {
			fmt.Printf("truncated %s rows=%d\n", *table, deleted)
		} else {
			fmt.Printf("dry run: would delete %d rows from %s (use --commit)\n", deleted, *table)
		}
	default:
		usage()
		os.Exit(1)
	}
}

// resolveRange fills missing range bounds: --to defaults to today, --from
// defaults to the lookback window ending at --to.
func resolveRange(from, to string, lookbackDays int) (string, string) {
	if strings.TrimSpace(to) == "" {
		to = time.Now().Format(dateLayout)
	}
	if strings.TrimSpace(from) == "" {
		end, err := time.Parse(dateLayout, to)
		if err != nil {
			end = time.Now()
		}
		from = end.AddDate(0, 0, -lookbackDays).Format(dateLayout)
	}
	return from, to
}

func usage() {
	fmt.Println("usage: kbsync <command>")
	fmt.Println("commands:")
	fmt.Println("  shiprocket:sync [--from=YYYY-MM-DD] [--to=YYYY-MM-DD] [--lookback-days=500] [--no-commit]")
	fmt.Println("  customs:import --file=ledger.xlsx [--no-commit]")
	fmt.Println("  customs:import-mapping --file=mapping.xlsx [--no-commit]")
	fmt.Println("  customs:reclassify [--no-commit]")
	fmt.Println("  customs:watch")
	fmt.Println("  export:xlsx --table=kbe_import_export [--out=./out/result.xlsx]")
	fmt.Println("  db:count --table=shiprocket_orders")
	fmt.Println("  db:truncate --table=shiprocket_orders --commit")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
