package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"marketsim/internal/autoplay"
	"marketsim/internal/catalog"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printHeader(msg string) {
	accent.Printf("\n== %s ==\n", msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderCatalog(cat *catalog.Catalog) {
	printHeader("CATALOG")
	fmt.Printf("%-3s %-12s %-4s %10s %10s %8s\n", "#", "ID", "", "BASE", "SUGGESTED", "DEMAND")
	for i, p := range cat.Products() {
		fmt.Printf("%-3d %-12s %-4s %10s %10s %8s\n",
			i+1,
			truncate(p.ID, 12),
			p.Icon,
			p.BasePrice.StringFixed(2),
			p.SuggestedPrice().StringFixed(2),
			strconv.FormatFloat(p.BaseDemand, 'f', -1, 64),
		)
	}
	fmt.Println()
}

func renderDayResult(r autoplay.DayResult) {
	rep := r.Report
	accent.Printf("\nDay %d", r.Day)
	fmt.Printf("  bought %d, listed %d\n", r.Bought, r.Listed)
	if len(rep.Sales) == 0 {
		printInfo("  Nothing sold.")
	}
	for _, s := range rep.Sales {
		fmt.Printf("  %-14s %5d sold %10s\n", truncate(s.ProductName, 14), s.Quantity, s.Revenue.StringFixed(2))
	}
	fmt.Printf("  Revenue %s  Purchases %s  Bill %s  Profit %s  Cash %s\n",
		rep.Revenue.StringFixed(2),
		rep.Purchases.StringFixed(2),
		rep.UtilityBill.StringFixed(2),
		colorizeMoney(rep.Profit),
		r.Balance,
	)
	if t := rep.Theft; t != nil {
		switch {
		case t.Caught:
			success.Printf("  Caught a thief going for %s.\n", t.ProductName)
		default:
			printWarn(fmt.Sprintf("  Thief took %d %s (%s).", t.Stolen, t.ProductName, strings.ReplaceAll(string(t.Choice), "_", " ")))
		}
	}
}

func renderSummary(sum autoplay.Summary, elapsed time.Duration) {
	printHeader("SUMMARY")
	fmt.Printf("Days played:   %d\n", sum.Days)
	fmt.Printf("Revenue:       %s\n", sum.Revenue.StringFixed(2))
	fmt.Printf("Total profit:  %s\n", colorizeMoney(sum.Profit))
	fmt.Printf("Final cash:    %s\n", sum.FinalBalance)
	fmt.Printf("Thieves:       %d (%d units lost)\n", sum.Thefts, sum.UnitsStolen)
	fmt.Printf("Elapsed:       %s\n", elapsed.Round(time.Millisecond))
	if sum.Bankrupt {
		printError("The shop went bankrupt.")
		return
	}
	success.Println("Still in business.")
}

func colorizeMoney(v decimal.Decimal) string {
	switch v.Sign() {
	case 1:
		return success.Sprint("+" + v.StringFixed(2))
	case -1:
		return danger.Sprint(v.StringFixed(2))
	default:
		return neutral.Sprint(v.StringFixed(2))
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
