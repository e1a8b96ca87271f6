package client

import (
	"bytes"
	"context"
	"io"
	"net/http"

	keelhttp "github.com/foomo/keel/net/http"
	"github.com/foomo/sitemaps/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	httpTransport struct {
		client   *http.Client
		endpoint string
	}
	HTTPTransportOption func(*httpTransport)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTPTransport will create a new http transport for the given admin api endpoint.
// Caution: the provided endpoint is not validated!
func NewHTTPTransport(endpoint string, opts ...HTTPTransportOption) transport {
	inst := &httpTransport{
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(inst)
	}
	if inst.client == nil {
		inst.client = keelhttp.NewHTTPClient(
			keelhttp.HTTPClientWithTelemetry(),
		)
	}
	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func HTTPTransportWithClient(v *http.Client) HTTPTransportOption {
	return func(o *httpTransport) {
		o.client = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (ht *httpTransport) call(ctx context.Context, method, path string, request any, response any) error {
	var body io.Reader
	if request != nil {
		requestBytes, err := json.Marshal(request)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(requestBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, ht.endpoint+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResponse, err := ht.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to call %s %s", method, path)
	}
	defer httpResponse.Body.Close()

	responseBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if httpResponse.StatusCode != http.StatusOK {
		apiErr := &responses.Error{}
		if len(responseBytes) > 0 {
			_ = json.Unmarshal(responseBytes, &reply{Reply: apiErr})
		}
		if apiErr.Status == 0 {
			apiErr.Status = httpResponse.StatusCode
		}
		return apiErr
	}

	if response == nil {
		return nil
	}
	return json.Unmarshal(responseBytes, &reply{Reply: response})
}

// reply every admin api response is wrapped into
type reply struct {
	Reply any `json:"reply"`
}
