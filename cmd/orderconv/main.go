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

	"orderconv/internal/catalog"
	"orderconv/internal/config"
	"orderconv/internal/intake"
	gmailconnector "orderconv/internal/intake/gmail"
	imapconnector "orderconv/internal/intake/imap"
	"orderconv/internal/listener"
	"orderconv/internal/pipeline"
	"orderconv/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]

	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	switch cmd {
	case "catalog:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "master workbook path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		counts, err := catalog.ImportMasterXLSX(db, *file)
		must(err)
		fmt.Printf("catalog import complete products=%d customers=%d schemes=%d\n", counts.Products, counts.Customers, counts.Schemes)
	case "catalog:sync":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		incremental := fs.Bool("incremental", false, "only changed records")
		_ = fs.Parse(os.Args[2:])
		svc := catalog.NewSyncService(db, cfg)
		var counts catalog.SyncCounts
		if *incremental {
			counts, err = svc.IncrementalSync(context.Background())
		} else {
			counts, err = svc.InitialSync(context.Background())
		}
		must(err)
		fmt.Printf("catalog sync complete products=%d customers=%d schemes=%d\n", counts.Products, counts.Customers, counts.Schemes)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := intake.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed order id=%d lines=%d failed=%d\n", res.OrderID, res.Processed, res.Failed)
			return
		}
		processedDocs, processedLines, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending orders=%d lines=%d\n", processedDocs, processedLines)
	case "mail:listen":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(listener.NewService(db, cfg).Run(ctx))
	case "convert":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "order document path")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		buf, err := os.ReadFile(*input)
		must(err)
		products, err := db.ListProducts()
		must(err)
		customers, err := db.ListCustomers()
		must(err)
		schemes, err := db.ListSchemes()
		must(err)
		result, err := pipeline.ConvertDocument(cfg, buf, filepath.Base(*input), products, customers, schemes)
		must(err)

		outputPath := strings.TrimSpace(*out)
		if outputPath == "" {
			base := strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
			outputPath = filepath.Join(cfg.OutputDir, base+".xlsx")
		}
		rows := pipeline.ResultToExportRows(filepath.Base(*input), result)
		must(pipeline.ExportRowsToXLSX(rows, outputPath))
		fmt.Printf("convert done customer=%q items=%d failed=%d errors=%d warnings=%d output=%s\n",
			result.CustomerName, len(result.Items), len(result.Failed), len(result.Errors), len(result.Warnings), outputPath)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		orderID := fs.Int("orderId", 0, "internal order id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *orderID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--orderId and --out are required"))
		}
		rows, err := db.GetExportRows(*orderID)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no export rows for orderId=%d", *orderID))
		}
		must(pipeline.ExportRowsToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func makeConnector(cfg config.Config, provider string) (intake.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(context.Background(), cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: orderconv <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:import --file=./masters.xlsx")
	fmt.Println("  catalog:sync [--incremental]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  convert --input=./order.pdf [--out=./out/order.xlsx]")
	fmt.Println("  export:xlsx --orderId=1 --out=./out/result.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
