package a

import (
	"context"
	"net/http"
	"net/url"
)

func bad(c *http.Client) {
	_, _ = http.Get("http://example.com")                             // want `http.Get issues a request without a context; use http.NewRequestWithContext and Client.Do`
	_, _ = http.Head("http://example.com")                            // want `http.Head issues a request without a context`
	_, _ = http.Post("http://example.com", "text/plain", nil)         // want `http.Post issues a request without a context`
	_, _ = http.PostForm("http://example.com", url.Values{})          // want `http.PostForm issues a request without a context`
	_, _ = http.NewRequest(http.MethodGet, "http://example.com", nil) // want `http.NewRequest issues a request without a context; use http.NewRequestWithContext`
	_, _ = c.Get("http://example.com")                                // want `http.Client.Get issues a request without a context`
	_, _ = (c.Post)("http://example.com", "text/plain", nil)          // want `http.Client.Post issues a request without a context`
}

func good(ctx context.Context, c *http.Client) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", nil)
	if err != nil {
		return
	}
	resp, err := c.Do(req)
	if err == nil {
		_ = resp.Body.Close()
	}
	_ = http.StatusText(http.StatusOK)
}

type fake struct{}

func (fake) Get(string) error { return nil }

func notHTTP() {
	_ = fake{}.Get("http://example.com")
}
