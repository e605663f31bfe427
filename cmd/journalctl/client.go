package main

import (
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// apiKey is sent as a bearer token when set.
var apiKey string

func newClient(apiURL string) *resty.Client {
	c := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return c
}

// copyResponse writes the body to out, or returns an error carrying it when
// the status is not want.
func copyResponse(resp *resty.Response, want int, out io.Writer) error {
	if resp.StatusCode() != want {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	_, err := out.Write(resp.Body())
	if err == nil {
		_, err = fmt.Fprintln(out)
	}
	return err
}
