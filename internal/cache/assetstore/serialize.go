package assetstore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
)

const PREFIX = "---HTTP-RESPONSE---\n"

// Serialize dumps resp, body included, and leaves resp.Body readable again
func Serialize(resp *http.Response) ([]byte, error) {
	b, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}

	return append([]byte(PREFIX), b...), nil
}

// Deserialize rebuilds a response written by Serialize. The body is fully
// buffered so the response outlives the stored bytes.
func Deserialize(b []byte, req *http.Request) (*http.Response, error) {
	if len(b) < len(PREFIX) || string(b[:len(PREFIX)]) != PREFIX {
		return nil, fmt.Errorf("invalid prefix: expected '%s'", PREFIX)
	}

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b[len(PREFIX):])), req)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize response: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read stored body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.TransferEncoding = nil

	return resp, nil
}
