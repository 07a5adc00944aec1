package apiclient

import (
	"net/url"
	"strconv"

	"github.com/marmos91/telebox/pkg/record"
)

// ListRecords returns up to limit records whose handle sorts after after.
// A zero limit lets the server pick its default.
func (c *Client) ListRecords(limit int, after string) ([]record.Entry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if after != "" {
		q.Set("after", after)
	}
	path := "/api/records"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var entries []record.Entry
	if err := c.get(path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetRecord returns the record of handle.
func (c *Client) GetRecord(handle string) (*record.Entry, error) {
	var entry record.Entry
	if err := c.get("/api/records/"+url.PathEscape(handle), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateRecord applies u to the record of handle and returns the result.
func (c *Client) UpdateRecord(handle string, u record.Update) (*record.Entry, error) {
	var entry record.Entry
	if err := c.patch("/api/records/"+url.PathEscape(handle), u, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
