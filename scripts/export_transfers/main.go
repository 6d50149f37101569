package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/economy_bot/internal/config"
	"github.com/mroshb/economy_bot/internal/database"
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	transfersSheet = "Transfers"
	summarySheet   = "Summary"
	dateLayout     = "2006-01-02"
)

func main() {
	guild := flag.String("guild", "", "guild id to export (required)")
	from := flag.String("from", "", "first day to include, YYYY-MM-DD")
	to := flag.String("to", "", "first day to exclude, YYYY-MM-DD")
	out := flag.String("out", "transfers.xlsx", "output workbook")
	flag.Parse()

	if *guild == "" {
		log.Fatal("-guild is required")
	}
	fromTime, err := parseDay(*from)
	if err != nil {
		log.Fatalf("invalid -from: %v", err)
	}
	toTime, err := parseDay(*to)
	if err != nil {
		log.Fatalf("invalid -to: %v", err)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	logs, err := repositories.NewTransferLogRepository(db).ListTransferLogs(*guild, fromTime, toTime)
	if err != nil {
		log.Fatal("failed to load transfers:", err)
	}

	f, err := buildWorkbook(logs)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := f.SaveAs(*out); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Exported %d transfers of guild %s to %s\n", len(logs), *guild, *out)
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// buildWorkbook writes one row per transfer plus a per-kind summary.
func buildWorkbook(logs []models.TransferLog) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", transfersSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"ID", "Time (UTC)", "Kind", "Amount", "From user", "From character", "To user", "To character", "Auction"}
	if err := f.SetSheetRow(transfersSheet, "A1", &header); err != nil {
		return nil, err
	}

	totals := map[string]decimal.Decimal{}
	counts := map[string]int{}
	var kinds []string
	for i, l := range logs {
		auction := ""
		if l.AuctionID != nil {
			auction = fmt.Sprintf("#%d", *l.AuctionID)
		}
		amount, _ := l.Amount.Float64()
		row := []interface{}{
			l.ID, l.CreatedAt.UTC().Format(time.RFC3339), l.Kind, amount,
			l.SourceUserID, l.SourceCharName, l.DestinationUserID, l.DestinationCharName, auction,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(transfersSheet, cell, &row); err != nil {
			return nil, err
		}

		if _, ok := totals[l.Kind]; !ok {
			kinds = append(kinds, l.Kind)
		}
		totals[l.Kind] = totals[l.Kind].Add(l.Amount)
		counts[l.Kind]++
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summaryHeader := []interface{}{"Kind", "Transfers", "Total amount"}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return nil, err
	}
	for i, kind := range kinds {
		total, _ := totals[kind].Float64()
		row := []interface{}{kind, counts[kind], total}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
