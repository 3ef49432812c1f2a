// Package telephony provides read-only access to call event records on the
// telephony platform. Calls are consumed for display and customer
// correlation only; they are never reconciled into persisted entities.
package telephony

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// CallRecord is the trimmed call event the engine works with.
type CallRecord struct {
	SID       string `json:"sid"`
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
	Duration  string `json:"duration,omitempty"`
	StartTime string `json:"start_time,omitempty"`
}

// Client defines the telephony operations the engine uses.
type Client interface {
	FetchCall(ctx context.Context, sid string) (*CallRecord, error)
	ListCalls(ctx context.Context, limit int) ([]CallRecord, error)
}

// callAPI is the slice of the Twilio SDK the client depends on; tests
// substitute a fake.
type callAPI interface {
	FetchCall(sid string, params *api.FetchCallParams) (*api.ApiV2010Call, error)
	ListCall(params *api.ListCallParams) ([]api.ApiV2010Call, error)
}

// twClient wraps the Twilio REST client.
//
// NOTE: twilio-go does not accept context.Context, so ctx only gates entry;
// an in-flight SDK call cannot be cancelled.
type twClient struct {
	api callAPI
}

// NewClient creates a telephony Client. Both credentials are required; their
// absence is a configuration error surfaced before any call is fetched.
func NewClient(accountSID, authToken string) (Client, error) {
	if accountSID == "" || authToken == "" {
		return nil, eris.New("telephony: account sid and auth token not configured")
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &twClient{api: rest.Api}, nil
}

// newClientWithAPI wires a custom API implementation; used by tests.
func newClientWithAPI(a callAPI) Client {
	return &twClient{api: a}
}

func (c *twClient) FetchCall(ctx context.Context, sid string) (*CallRecord, error) {
	if sid == "" {
		return nil, eris.New("telephony: call sid is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "telephony: fetch call")
	}

	call, err := c.api.FetchCall(sid, &api.FetchCallParams{})
	if err != nil {
		return nil, eris.Wrapf(err, "telephony: fetch call %s", sid)
	}
	return fromAPICall(call), nil
}

func (c *twClient) ListCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "telephony: list calls")
	}
	if limit <= 0 {
		limit = 50
	}

	params := &api.ListCallParams{}
	params.SetLimit(limit)

	calls, err := c.api.ListCall(params)
	if err != nil {
		return nil, eris.Wrap(err, "telephony: list calls")
	}

	records := make([]CallRecord, 0, len(calls))
	for i := range calls {
		records = append(records, *fromAPICall(&calls[i]))
	}
	return records, nil
}

func fromAPICall(call *api.ApiV2010Call) *CallRecord {
	rec := &CallRecord{}
	if call.Sid != nil {
		rec.SID = *call.Sid
	}
	if call.From != nil {
		rec.From = *call.From
	}
	if call.To != nil {
		rec.To = *call.To
	}
	if call.Status != nil {
		rec.Status = *call.Status
	}
	if call.Direction != nil {
		rec.Direction = *call.Direction
	}
	if call.Duration != nil {
		rec.Duration = *call.Duration
	}
	if call.StartTime != nil {
		rec.StartTime = *call.StartTime
	}
	return rec
}
