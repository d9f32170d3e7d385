// Package myfabtotum talks to the my.fabtotum.com cloud service: account
// login, printer registration, connectivity probing and the credential reload
// signal for the local myfabtotum daemon.
package myfabtotum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrRemoteProvider = errors.New("my.fabtotum.com request failed")

const (
	methodLogin               = "fab_login"
	methodRegisterPrinter     = "fab_register_printer"
	methodIsPrinterRegistered = "fab_is_printer_registered"
)

// Reply is the result object returned by a remote call. Every reply carries
// at least a boolean "status".
type Reply map[string]any

// Status reports the reply's "status" member. Missing or non-boolean values
// count as false.
func (r Reply) Status() bool {
	ok, _ := r["status"].(bool)
	return ok
}

// Client is a JSON-RPC 2.0 client for the my.fabtotum.com API.
type Client struct {
	endpoint   string
	serial     string
	mac        string
	httpClient *http.Client
}

// NewClient creates a client bound to the printer identified by serial and mac.
func NewClient(endpoint, serial, mac string) *Client {
	return &Client{
		endpoint: endpoint,
		serial:   serial,
		mac:      mac,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     string    `json:"id"`
	Result Reply     `json:"result"`
	Error  *rpcError `json:"error"`
}

// Login checks a FABID and password against my.fabtotum.com.
func (c *Client) Login(ctx context.Context, fabid, password string) (Reply, error) {
	return c.call(ctx, methodLogin, map[string]string{
		"fabid":    fabid,
		"password": password,
	})
}

// RegisterPrinter links this printer to the given FABID. An empty serial is
// left out of the request.
func (c *Client) RegisterPrinter(ctx context.Context, fabid, serial string) (Reply, error) {
	params := map[string]string{
		"fabid": fabid,
		"mac":   c.mac,
	}
	if serial != "" {
		params["serialno"] = serial
	}
	return c.call(ctx, methodRegisterPrinter, params)
}

// IsPrinterRegistered asks whether this printer is already registered.
func (c *Client) IsPrinterRegistered(ctx context.Context) (bool, error) {
	reply, err := c.call(ctx, methodIsPrinterRegistered, map[string]string{
		"serialno": c.serial,
		"mac":      c.mac,
	})
	if err != nil {
		return false, err
	}
	return reply.Status(), nil
}

func (c *Client) call(ctx context.Context, method string, params any) (Reply, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRemoteProvider, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRemoteProvider, method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRemoteProvider, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrRemoteProvider, method, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %v", ErrRemoteProvider, method, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%w: %s: %d %s", ErrRemoteProvider, method, out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		out.Result = Reply{}
	}
	return out.Result, nil
}
