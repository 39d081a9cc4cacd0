// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Command retrovuectl is the operator CLI for a running retrovued daemon:
// a thin client over the operator HTTP API for health checks and
// per-channel status during an on-call shift.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/slbailey/retrovue/internal/models"
)

var usg = `Usage: %s [options] <command> [args]

Commands:
  health              check the daemon's liveness and readiness
  channels             list every configured channel's supervision status
  channel <id>         show one channel's supervision and live playout status
  horizon [id]          show Horizon Manager EPG/execution depth compliance
                        (all channels, or one when id is given)
  playlog <id>          show one channel's Playlog Horizon Daemon coverage

Options:
`

type options struct {
	baseURL string
	timeout time.Duration
	asJSON  bool
}

func parseOptions() (*options, []string) {
	o := &options{}
	flag.StringVarP(&o.baseURL, "url", "u", "http://localhost:3857", "retrovued operator API base URL")
	flag.DurationVarP(&o.timeout, "timeout", "t", 5*time.Second, "request timeout")
	flag.BoolVarP(&o.asJSON, "json", "j", false, "print the raw response envelope instead of a formatted summary")
	flag.CommandLine.SortFlags = false

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, usg, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	return o, flag.Args()
}

func main() {
	o, args := parseOptions()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: o.timeout}
	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "health":
		err = runHealth(client, o)
	case "channels":
		err = runGet(client, o, "/api/v1/channels/")
	case "channel":
		err = requireID(rest, func(id string) error { return runGet(client, o, "/api/v1/channels/"+id) })
	case "horizon":
		if len(rest) == 0 {
			err = runGet(client, o, "/api/v1/healthz/horizon")
		} else {
			err = runGet(client, o, "/api/v1/channels/"+rest[0]+"/horizon")
		}
	case "playlog":
		err = requireID(rest, func(id string) error { return runGet(client, o, "/api/v1/channels/"+id+"/playlog") })
	default:
		fmt.Fprintf(os.Stderr, "retrovuectl: unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "retrovuectl: %v\n", err)
		os.Exit(1)
	}
}

func requireID(args []string, fn func(id string) error) error {
	if len(args) == 0 {
		return fmt.Errorf("channel id is required")
	}
	return fn(args[0])
}

func runHealth(client *http.Client, o *options) error {
	if err := runGet(client, o, "/api/v1/health/live"); err != nil {
		return err
	}
	return runGet(client, o, "/api/v1/health/ready")
}

// runGet issues a GET against path and prints the decoded APIResponse,
// either as the raw envelope (--json) or a compact one-line summary.
func runGet(client *http.Client, o *options, path string) error {
	resp, err := client.Get(strings.TrimRight(o.baseURL, "/") + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", path, err)
	}

	var envelope models.APIResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}

	if o.asJSON {
		pretty, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return fmt.Errorf("format response: %w", err)
		}
		fmt.Println(string(pretty))
		return nil
	}

	if envelope.Status != "success" {
		msg := "request failed"
		if envelope.Error != nil {
			msg = fmt.Sprintf("%s: %s", envelope.Error.Code, envelope.Error.Message)
		}
		return fmt.Errorf("%s -> %s", path, msg)
	}

	data, err := json.MarshalIndent(envelope.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("format response data: %w", err)
	}
	fmt.Printf("%s (%dms)\n%s\n", path, envelope.Metadata.QueryTimeMS, data)
	return nil
}
