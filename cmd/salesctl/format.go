package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/export"
	"salesdash/internal/sales"
	"salesdash/internal/services"
	"salesdash/internal/worker"
)

func printReport(w io.Writer, rep *services.Report, withSeries bool) {
	snap := rep.Result.Snapshot
	fmt.Fprintf(w, "%s: %d records\n\n", rep.Title(), rep.Result.Records)

	printBlock(w, export.SheetContract, snap.Contract)
	if snap.Payment != nil {
		printBlock(w, export.SheetPayment, *snap.Payment)
	}
	if snap.Litigation != nil {
		printBlock(w, export.SheetLitigation, *snap.Litigation)
	}
	if len(snap.Overall) > 0 {
		printOverall(w, snap.Overall)
	}
	if withSeries {
		printSeries(w, rep.Result.Series)
	}
}

func printBlock(w io.Writer, title string, b sales.Block) {
	fmt.Fprintf(w, "%s\n", title)
	printTable(w, "세대수", b.Units)
	printTable(w, "금액(백만원)", b.Amounts)
}

func printTable(w io.Writer, caption string, t sales.Table) {
	fmt.Fprintf(w, "  [%s]\n", caption)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "  상품\t%s\t\n", strings.Join(t.Columns, "\t"))
	for _, r := range t.Rows {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%d\t%d\t\n",
			r.ProductType, r.Supply, r.Positive, r.Negative, r.PositivePct, r.NegativePct)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printOverall(w io.Writer, rows []sales.BreakdownRow) {
	fmt.Fprintln(w, export.SheetOverall)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  상품\t소송\t완납\t계약\t세대\t금액(백만원)\n")
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d\t%d\n",
			r.ProductType, r.Litigation, r.Payment, r.Contract, r.Units, r.AmountMillions)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printSeries(w io.Writer, s sales.Series) {
	if len(s.Points) == 0 {
		return
	}
	fmt.Fprintf(w, "누적 추이 (%s ~ %s)\n", s.Months[0], s.Months[len(s.Months)-1])
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  월\t상품\t누적계약\t누적완납\t계약률\t완납률\n")
	for _, p := range s.Points {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%.1f%%\t%.1f%%\n",
			p.Month, p.ProductType, p.CumulativeContracted, p.CumulativePaid,
			p.ContractedRate*100, p.PaidRate*100)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printProjects(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
}

func printPairs(w io.Writer, pairs []core.ProjectPair) {
	if len(pairs) == 0 {
		fmt.Fprintln(w, "No pairs registered.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "본공사\t옵션공사\n")
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s\t%s\n", p.Main, p.Option)
	}
	tw.Flush()
}

func printSyncResult(w io.Writer, res worker.SyncResult) {
	fmt.Fprintf(w, "Synced %d projects, %d records in %s\n",
		res.Projects-len(res.Failed), res.Records, res.Duration.Round(time.Millisecond))
	if len(res.Failed) > 0 {
		fmt.Fprintf(w, "FAILED (%d):\n", len(res.Failed))
		for _, name := range res.Failed {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	if len(res.Removed) > 0 {
		fmt.Fprintf(w, "REMOVED (%d):\n", len(res.Removed))
		for _, name := range res.Removed {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}
