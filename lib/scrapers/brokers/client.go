package brokers

import (
	"fmt"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://api-prd.brokers.eemovel.com.br"

// surfaced untouched to the caller, a fresh credential has to come
// from outside the run
var ErrUnauthorized = fmt.Errorf("platform rejected the bearer credential")

type ClientOptions struct {
	BaseUrl     string
	BearerToken string
}

// Client owns the authenticated session reused across every request
// of a run.
type Client struct {
	http *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BearerToken == "" {
		return nil, fmt.Errorf("a bearer token is required")
	}
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetTimeout(time.Second * 30)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeaders(map[string]string{
		"accept":          "application/json, text/plain, */*",
		"accept-language": "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		"authorization":   fmt.Sprintf("Bearer %s", opts.BearerToken),
		"content-type":    "application/json",
		"origin":          "https://brokers.eemovel.com.br",
		"referer":         "https://brokers.eemovel.com.br/",
		"user-agent":      "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Mobile Safari/537.36",
	})

	instrumentClient(client)

	return &Client{http: client}, nil
}

func checkStatus(res *resty.Response) error {
	code := res.StatusCode()
	if code == 401 || code == 403 {
		return fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("unexpected status %d: %s", code, res.String())
	}
	return nil
}
