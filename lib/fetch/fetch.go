// Package fetch is the degraded path when the browser can't reach a
// page: a plain GET of whatever server-rendered HTML exists. Cards
// behind client-side rendering will be missing, which the strategies
// treat as a partial (possibly empty) result.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"magenta-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Client struct {
	Http *resty.Client
}

func NewClient() (*Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "magenta.lib.fetch")

	return &Client{Http: client}, nil
}

func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	res, err := c.Http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", url, res.StatusCode())
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
}
