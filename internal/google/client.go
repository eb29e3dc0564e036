// Package google implements the Google Calendar REST provider: OAuth2
// refresh-token renewal and calendarList/events fetch. Grounded on
// original_source/common/src/calendar/google/{auth,fetch}.rs, using
// net/http + encoding/json directly rather than golang.org/x/oauth2
// (see DESIGN.md for why).
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/credstore"
	"github.com/watson-app/watson/internal/werr"
)

const (
	clientID     = "571128954566-ma98chaempk6lsmn469r6ls2589psv01.apps.googleusercontent.com"
	clientSecret = "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"
	tokenURL     = "https://oauth2.googleapis.com/token"

	refreshSkew = 120 * time.Second
	tokenTTL    = 3600 * time.Second
)

// Client is the Google Calendar provider, implementing provider.Provider.
type Client struct {
	cred *credstore.Credential
	http *http.Client
	base string
}

// New builds a Client bound to cred, which must already be unlocked.
func New(cred *credstore.Credential) *Client {
	return &Client{cred: cred, http: http.DefaultClient, base: "https://www.googleapis.com"}
}

// Init is a no-op: OAuth exchange happens out-of-band (the browser
// bootstrap flow is out of scope, spec.md §1 Non-goals); by the time a
// Client exists its credential already holds a refresh token.
func (c *Client) Init(ctx context.Context) error {
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Refresh renews the access token when it's within refreshSkew of
// expiry, writing the new token and expiry back into the credential
// (spec.md §4.5/§4.7, fetch.rs's refresh).
func (c *Client) Refresh(ctx context.Context) error {
	if c.cred.AccessToken == nil {
		return werr.New(werr.KindGoogleAuth, "credential has no OAuth state")
	}

	now := time.Now()
	if c.cred.ExpiresAt > now.Add(refreshSkew).Unix() {
		return nil
	}

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", c.cred.Secret.String())
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return werr.Wrap(werr.KindHTTPPostRequest, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return werr.Wrap(werr.KindHTTPPostRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return werr.Wrap(werr.KindDeserialize, err)
	}

	if resp.StatusCode/100 != 2 {
		return werr.New(werr.KindGoogleAuth, "failed to retrieve OAuth2 credentials")
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return werr.Wrap(werr.KindDeserialize, err)
	}

	*c.cred.AccessToken = credstore.Decrypted(tok.AccessToken)
	c.cred.ExpiresAt = now.Add(tokenTTL).Unix()
	return nil
}

type calendarListResponse struct {
	Items []calendarListEntry `json:"items"`
}

type calendarListEntry struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Color   string `json:"backgroundColor"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ListCalendars fetches the authenticated user's calendar list.
func (c *Client) ListCalendars(ctx context.Context) ([]calmodel.CalendarInfo, error) {
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	body, status, err := c.get(ctx, c.base+"/calendar/v3/users/me/calendarList")
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, apiErrorOf(body)
	}

	var list calendarListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, werr.Wrap(werr.KindDeserialize, err)
	}

	calendars := make([]calmodel.CalendarInfo, 0, len(list.Items))
	for _, item := range list.Items {
		calendars = append(calendars, calmodel.CalendarInfo{
			Href:  item.ID,
			Name:  item.Summary,
			Color: item.Color,
		})
	}
	return calendars, nil
}

func apiErrorOf(body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return werr.Wrap(werr.KindDeserialize, err)
	}
	return werr.New(werr.KindGoogleCalendar, "%s", apiErr.Error.Message)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, werr.Wrap(werr.KindHTTPGetRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cred.AccessToken.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, werr.Wrap(werr.KindHTTPGetRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, werr.Wrap(werr.KindDeserialize, err)
	}
	return body, resp.StatusCode, nil
}

// FetchEvents fetches every calendar's events endpoint. A calendar
// whose request fails non-2xx is skipped; the rest still contribute
// (spec.md §4.7, §7, mirroring fetch.rs's "continue" on bad status).
func (c *Client) FetchEvents(ctx context.Context, calendars []calmodel.CalendarInfo) ([]calmodel.Event, error) {
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	var out []calmodel.Event
	for i := range calendars {
		info := calendars[i]
		eventsURL := fmt.Sprintf(c.base+"/calendar/v3/calendars/%s/events", url.PathEscape(info.Href))

		body, status, err := c.get(ctx, eventsURL)
		if err != nil || status/100 != 2 {
			continue
		}

		var list eventListResponse
		if err := json.Unmarshal(body, &list); err != nil {
			continue
		}

		for _, item := range list.Items {
			out = append(out, item.toEvent(&info))
		}
	}
	return out, nil
}
