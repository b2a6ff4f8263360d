// Package fintwol fetches Finnish morphological analyses from the Lingsoft FINTWOL web demo.
package fintwol

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// FetchError is a transport or HTTP status failure talking to the analysis service.
type FetchError struct {
	Word       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch analysis of %q: status code %d: %v", e.Word, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch analysis of %q: %v", e.Word, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Config struct {
	BaseURL   string
	Charset   Charset
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	config     Config
	httpClient *resty.Client
}

func NewClient(config Config) (*Client, error) {
	if _, err := EncodeWord("", config.Charset); err != nil {
		return nil, err
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is empty")
	}

	client := resty.New()
	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}
	if config.UserAgent != "" {
		client.SetHeader("User-Agent", config.UserAgent)
	}

	return &Client{
		config:     config,
		httpClient: client,
	}, nil
}

// RequestURL builds the lookup URL for word.
func (c *Client) RequestURL(word string) (string, error) {
	encoded, err := EncodeWord(word, c.config.Charset)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(c.config.BaseURL, "?") + "?word=" + encoded, nil
}

// Fetch sends one request for word. found is false when the service does not
// recognize the word; that is not an error and must not be retried.
func (c *Client) Fetch(ctx context.Context, word string) (analysis string, found bool, err error) {
	requestURL, err := c.RequestURL(word)
	if err != nil {
		return "", false, &FetchError{Word: word, Err: err}
	}

	res, err := c.httpClient.R().
		SetContext(ctx).
		Get(requestURL)
	if err != nil {
		return "", false, &FetchError{Word: word, Err: fmt.Errorf("client.R.Get > %w", err)}
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return "", false, &FetchError{
			Word:       word,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("body: %.200s", string(res.Body())),
		}
	}

	analysis, found, err = parseAnalysis(res.Body(), res.Header().Get("Content-Type"))
	if err != nil {
		return "", false, &FetchError{Word: word, StatusCode: res.StatusCode(), Err: err}
	}
	return analysis, found, nil
}

func (c *Client) Close() error {
	c.httpClient.GetClient().CloseIdleConnections()
	return nil
}
