package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/luserv/luserv/internal/core/data"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Lists recent connections from the audit log",
	Run:   ConnectionsCommand,
}

var (
	LimitFlag   int
	OutcomeFlag string
)

func ConnectionsCommand(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db, err := data.Open(cfg)
	if err != nil {
		exit("error opening database:", err)
	}
	defer data.Close(db)

	var records []data.ConnectionRecord
	if OutcomeFlag == "" {
		records, err = data.FindRecentConnections(db, LimitFlag)
	} else {
		records, err = data.FindConnectionsByOutcome(db, data.Outcome(strings.ToLower(OutcomeFlag)), LimitFlag)
	}
	if err != nil {
		exit("error reading connections:", err)
	}

	if len(records) == 0 {
		fmt.Println("no connections recorded")
		return
	}

	title := cases.Title(language.English)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONNECTED\tREMOTE\tOUTCOME\tLAST MESSAGE\tDURATION")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ConnectedAt.Format("2006-01-02 15:04:05"),
			r.RemoteAddr,
			title.String(string(r.Outcome)),
			r.LastMessage,
			r.DisconnectedAt.Sub(r.ConnectedAt).Round(time.Millisecond),
		)
	}
	_ = w.Flush()
}
