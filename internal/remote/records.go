package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	appErrors "github.com/mathschool/sync-core/pkg/errors"
)

// RecordSink posts opaque dashboard records to the generic record endpoint.
// The payload is persisted verbatim server-side; the sink never inspects it.
type RecordSink struct {
	url  string
	http *http.Client
}

// NewRecordSink constructs a sink for the configured endpoint.
func NewRecordSink(url string, client *http.Client) *RecordSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &RecordSink{url: url, http: client}
}

type recordEnvelope struct {
	Dashboard string      `json:"dashboard"`
	Data      interface{} `json:"data"`
}

// Post sends one record blob for the named dashboard.
func (s *RecordSink) Post(ctx context.Context, dashboard string, data interface{}) error {
	raw, err := json.Marshal(recordEnvelope{Dashboard: dashboard, Data: data})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode record")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build record request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNetworkUnavailable.Code, appErrors.ErrNetworkUnavailable.Status, "record sink unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return appErrors.Clone(appErrors.ErrNetworkUnavailable, fmt.Sprintf("record sink returned %d", resp.StatusCode))
	}
	return nil
}
