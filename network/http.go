package network

import (
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// Http abstracts plain http fetches (rpc discovery, health pages) so they can
// be mocked in tests.
type Http interface {
	Get(url string) ([]byte, error)
}

type DefaultHttp struct {
	client *retryablehttp.Client
}

func NewHttp() Http {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	return &DefaultHttp{
		client: client,
	}
}

func (d *DefaultHttp) Get(url string) ([]byte, error) {
	resp, err := d.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Url: url}
	}

	return io.ReadAll(resp.Body)
}

type StatusError struct {
	Code int
	Url  string
}

func (e *StatusError) Error() string {
	return "unexpected status " + http.StatusText(e.Code) + " from " + e.Url
}
