package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/sync"
	"github.com/sells-group/fieldsync/pkg/telephony"
)

var callsLimit int

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect call events and correlate them to customers",
}

// callLookup pairs a call record with the customer its caller number matched,
// if any.
type callLookup struct {
	Call     *telephony.CallRecord `json:"call"`
	Customer *model.Customer       `json:"customer,omitempty"`
}

var callsLookupCmd = &cobra.Command{
	Use:   "lookup <call-sid>",
	Short: "Fetch a call and match its caller to a customer by phone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tel, err := telephony.NewClient(cfg.Telephony.AccountSID, cfg.Telephony.AuthToken)
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		call, err := tel.FetchCall(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "fetch call")
		}

		customer, err := sync.NewMatcher(s).MatchCustomerByPhone(ctx, call.From)
		if err != nil {
			return eris.Wrap(err, "match customer")
		}

		out, err := json.MarshalIndent(callLookup{Call: call, Customer: customer}, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal lookup")
		}
		fmt.Println(string(out))
		return nil
	},
}

var callsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tel, err := telephony.NewClient(cfg.Telephony.AccountSID, cfg.Telephony.AuthToken)
		if err != nil {
			return err
		}

		calls, err := tel.ListCalls(ctx, callsLimit)
		if err != nil {
			return eris.Wrap(err, "list calls")
		}

		out, err := json.MarshalIndent(calls, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal calls")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	callsListCmd.Flags().IntVar(&callsLimit, "limit", 50, "max calls to list")
	callsCmd.AddCommand(callsLookupCmd, callsListCmd)
	rootCmd.AddCommand(callsCmd)
}
