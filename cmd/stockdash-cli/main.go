package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"stockdash/internal/dashboard"
	"stockdash/pkg/stockdash"
)

const version = "0.1.0"

func main() {
	server := flag.String("server", envOr("STOCKDASH_URL", "http://localhost:8090"), "chart server base URL")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stockdash-cli [-server URL] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version            Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  health             Show server and backend health\n")
		fmt.Fprintf(os.Stderr, "  stocks [sort]      List the watch list (code, gain, loss, amount, volume)\n")
		fmt.Fprintf(os.Stderr, "  quote <code>       Show today's session summary\n")
		fmt.Fprintf(os.Stderr, "  daily <code> [n]   Show the last n daily candles (default 10)\n")
		fmt.Fprintf(os.Stderr, "  watch [sort]       Live watch list, refreshed every 5s\n")
		fmt.Fprintf(os.Stderr, "\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := stockdash.NewClient(*server)
	args := flag.Args()

	var err error
	switch args[0] {
	case "version":
		fmt.Printf("stockdash-cli %s\n", version)
	case "health":
		err = health(ctx, c, os.Stdout)
	case "stocks":
		sort := ""
		if len(args) > 1 {
			sort = args[1]
		}
		err = stocks(ctx, c, os.Stdout, sort)
	case "quote":
		if len(args) < 2 {
			usageExit("quote requires a code")
		}
		err = quote(ctx, c, os.Stdout, args[1])
	case "daily":
		if len(args) < 2 {
			usageExit("daily requires a code")
		}
		n := 10
		if len(args) > 2 {
			if n, err = strconv.Atoi(args[2]); err != nil || n <= 0 {
				usageExit("daily: n must be a positive integer")
			}
		}
		err = daily(ctx, c, os.Stdout, args[1], n)
	case "watch":
		sort := ""
		if len(args) > 1 {
			sort = args[1]
		}
		err = watch(c, sort)
	default:
		usageExit("unknown command: " + args[0])
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usageExit(msg string) {
	fmt.Fprintf(os.Stderr, "%s\n\n", msg)
	flag.Usage()
	os.Exit(1)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func health(ctx context.Context, c *stockdash.Client, w io.Writer) error {
	h, err := c.Health(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	table.Append([]string{"status", h.Status})
	table.Append([]string{"mode", h.Mode})
	table.Append([]string{"views", strconv.Itoa(h.Views)})
	table.Append([]string{"subscribers", strconv.Itoa(h.Subscribers)})
	if h.NextPoll != nil {
		table.Append([]string{"next poll", h.NextPoll.Format(time.DateTime) + " (in " + h.PollIn + ")"})
	}
	if h.BackendError != "" {
		table.Append([]string{"backend error", h.BackendError})
	}
	return table.Render()
}

func stocks(ctx context.Context, c *stockdash.Client, w io.Writer, sort string) error {
	list, err := c.Stocks(ctx, sort)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Code", "Name", "Price", "Chg%", "Amount", "Volume"})
	for _, r := range list.Rows {
		table.Append([]string{r.Code, r.Name, r.PriceLabel, r.PctLabel, r.AmountLabel, r.VolumeLabel})
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d stocks, sorted by %s\n", list.Count, list.Sort)
	return nil
}

func quote(ctx context.Context, c *stockdash.Client, w io.Writer, code string) error {
	v, err := c.Intraday(ctx, code)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Code", "Date", "Latest", "Change", "Chg%", "High", "Low", "Volume", "Amount"})
	table.Append([]string{
		v.Code, v.Date, v.Labels.Latest, v.Labels.Change, v.Labels.ChangePercent,
		v.Labels.High, v.Labels.Low, v.Labels.Volume, v.Labels.Amount,
	})
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "previous close %s, %s points\n",
		dashboard.FormatPrice(v.PreviousClose), dashboard.FormatInt(int64(len(v.Points))))
	return nil
}

func daily(ctx context.Context, c *stockdash.Client, w io.Writer, code string, n int) error {
	d, err := c.Daily(ctx, code)
	if err != nil {
		return err
	}
	header := []string{"Date", "Open", "High", "Low", "Close", "Chg%", "Volume"}
	for _, ma := range d.MA {
		header = append(header, "MA"+strconv.Itoa(ma.Window))
	}

	first := len(d.Candles) - n
	if first < 0 {
		first = 0
	}
	table := tablewriter.NewWriter(w)
	table.Header(header)
	for i := first; i < len(d.Candles); i++ {
		k := d.Candles[i]
		row := []string{
			k.Date,
			dashboard.FormatPrice(k.Open),
			dashboard.FormatPrice(k.High),
			dashboard.FormatPrice(k.Low),
			dashboard.FormatPrice(k.Close),
			dashboard.SignPrefix(k.ChangePercent) + dashboard.FormatChangePercent(k.ChangePercent),
			k.VolumeLabel,
		}
		for _, ma := range d.MA {
			cell := "-"
			if i < len(ma.Values) && ma.Values[i] != nil {
				cell = dashboard.FormatPrice(*ma.Values[i])
			}
			row = append(row, cell)
		}
		table.Append(row)
	}
	return table.Render()
}
