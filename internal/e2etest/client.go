package e2etest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type Client struct {
	client *http.Client
	url    string
}

// NewClient creates an HTTP client that keeps cookies between requests like a browser.
func NewClient(url string) (*Client, error) {
	return NewClientWithSecFetchSite(url, "")
}

// NewClientWithSecFetchSite creates a client that sends the given Sec-Fetch-Site header on every request. Use
// "cross-site" to simulate a request forged by another origin.
func NewClientWithSecFetchSite(url, secFetchSite string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, fmt.Errorf("create unsafe cookie jar: %w", err)
	}
	var transport http.RoundTripper = http.DefaultTransport
	if secFetchSite != "" {
		transport = &secFetchSiteTransport{next: transport, site: secFetchSite}
	}
	return &Client{
		client: &http.Client{ //nolint:exhaustruct // defaults are fine.
			Jar:       jar,
			Transport: transport,
		},
		url: url,
	}, nil
}

type secFetchSiteTransport struct {
	next http.RoundTripper
	site string
}

func (t *secFetchSiteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Sec-Fetch-Site", t.site)
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("round trip: %w", err)
	}
	return resp, nil
}

// unsafeCookieJar drops the Secure attribute so that secure cookies are sent back over plain HTTP in tests.
type unsafeCookieJar struct {
	*cookiejar.Jar
}

func newUnsafeCookieJar() (*unsafeCookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	return &unsafeCookieJar{Jar: jar}, nil
}

func (j *unsafeCookieJar) SetCookies(u *neturl.URL, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		cookie.Secure = false
	}
	j.Jar.SetCookies(u, cookies)
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return fmt.Errorf("close response body: %w", err)
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return fmt.Errorf("close response body: %w", err)
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, fmt.Errorf("create request with context: %w", err)
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// Post sends an empty form POST and returns the response.
func (c *Client) Post(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodPost, urlPath, strings.NewReader("")); err != nil {
		return nil, fmt.Errorf("create request with context: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if resp, err = c.client.Do(req); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	var (
		err  error
		resp *http.Response
		doc  *goquery.Document
	)
	if resp, err = c.Get(ctx, urlPath); err != nil {
		return nil, fmt.Errorf("client get: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if doc, err = goquery.NewDocumentFromReader(resp.Body); err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// Register fills in the registration form and returns the resulting document, the login page on success.
func (c *Client) Register(ctx context.Context, username, email, password string) (*goquery.Document, error) {
	doc, err := c.GetDoc(ctx, "/register")
	if err != nil {
		return nil, fmt.Errorf("get register page: %w", err)
	}
	if doc, err = c.SubmitForm(ctx, doc, "/register", map[string]string{
		"Usuario":              username,
		"Correo electrónico":   email,
		"Contraseña":           password,
		"Confirmar contraseña": password,
	}); err != nil {
		return nil, fmt.Errorf("submit register form: %w", err)
	}
	return doc, nil
}

// Login fills in the login form and returns the resulting document, the dashboard on success.
func (c *Client) Login(ctx context.Context, username, password string) (*goquery.Document, error) {
	doc, err := c.GetDoc(ctx, "/login")
	if err != nil {
		return nil, fmt.Errorf("get login page: %w", err)
	}
	if doc, err = c.SubmitForm(ctx, doc, "/login", map[string]string{
		"Usuario":    username,
		"Contraseña": password,
	}); err != nil {
		return nil, fmt.Errorf("submit login form: %w", err)
	}
	return doc, nil
}

// Logout submits the logout form of the front page and returns the resulting document.
func (c *Client) Logout(ctx context.Context) (*goquery.Document, error) {
	var (
		doc *goquery.Document
		err error
	)
	if doc, err = c.GetDoc(ctx, "/"); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc, err = c.SubmitForm(ctx, doc, "/logout", nil); err != nil {
		return nil, fmt.Errorf("submit form: %w", err)
	}
	return doc, nil
}

// SubmitForm submits a form in the doc identified with action formActionUrlPath and returns the response document.
// formFields is a map of label text to value. The function will find the input by label and set its value.
// Hidden inputs of the form are submitted as they are.
func (c *Client) SubmitForm(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	formFields map[string]string,
) (*goquery.Document, error) {
	return c.SubmitFormWithButton(ctx, doc, formActionURLPath, "", formFields)
}

// SubmitFormWithButton is SubmitForm pressing the submit button with the given text. The button's name and value
// are submitted with the form like a browser does.
func (c *Client) SubmitFormWithButton(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	buttonText string,
	formFields map[string]string,
) (*goquery.Document, error) {
	form, err := FindForm(doc, formActionURLPath)
	if err != nil {
		return nil, fmt.Errorf("find form: %w", err)
	}

	formData := neturl.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, hidden *goquery.Selection) {
		if name, ok := hidden.Attr("name"); ok {
			formData.Add(name, hidden.AttrOr("value", ""))
		}
	})

	for labelText, value := range formFields {
		var control *goquery.Selection
		if control, err = FindControlForLabel(form, labelText); err != nil {
			return nil, fmt.Errorf("find control: %w", err)
		}
		name, ok := control.Attr("name")
		if !ok {
			return nil, fmt.Errorf("control has no name attribute (label: %s, form_action: %s)",
				labelText, formActionURLPath)
		}
		if err = CheckValue(control, value); err != nil {
			return nil, err
		}
		formData.Set(name, value)
	}

	if buttonText != "" {
		button := form.Find(fmt.Sprintf("button:contains(%q)", buttonText))
		if button.Length() == 0 {
			return nil, fmt.Errorf("button not found: %s", buttonText)
		}
		if name, ok := button.Attr("name"); ok {
			formData.Set(name, button.AttrOr("value", ""))
		}
	}

	// Submit the form
	data := strings.NewReader(formData.Encode())
	req, err := c.newRequestWithContext(ctx, http.MethodPost, formActionURLPath, data)
	if err != nil {
		return nil, fmt.Errorf("new request with context: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	// Forms re-render with 422 when the input is rejected.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Parse the response
	newDoc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}
	newDoc.Url = resp.Request.URL
	return newDoc, nil
}
