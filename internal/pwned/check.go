package pwned

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"passgate/internal/metrics"
)

// maxResponseSize bounds the range response body; a prefix bucket holds
// on the order of a thousand 40-byte records.
const maxResponseSize = 2 * 1024 * 1024

// Check queries the provider for the password's hash prefix and returns
// how many times the password appears in the breach corpus.
//
// A nil count with a nil error means the check was aborted (caller
// cancellation or the per-request deadline) and must not be read as
// "zero matches". Transport failures, non-2xx responses and malformed
// provider records return a *NetworkError.
func (c *Client) Check(parentCtx context.Context, password string) (*int, error) {
	start := time.Now()

	prefix, suffix := Range(password)

	var ctx context.Context
	var cancel context.CancelFunc
	if c.cfg.UpstreamTimeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, c.cfg.UpstreamTimeout)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}
	defer cancel()

	url := c.cfg.BaseURL + "/range/" + prefix

	// doOnce builds a fresh *http.Request for each attempt
	doOnce := func(ctx context.Context) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("pwned: build HTTP request: %w", err)
		}
		return c.httpClient.Do(httpReq)
	}

	resp, err := c.doWithRetry(ctx, doOnce)
	if err != nil {
		if isCancellation(err) {
			c.logger.Debug("breach check aborted",
				zap.String("prefix", prefix),
				zap.Duration("duration", time.Since(start)),
			)
			metrics.BreachChecksTotal.WithLabelValues("aborted").Inc()
			return nil, nil
		}
		metrics.BreachChecksTotal.WithLabelValues("error").Inc()
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		c.logger.Error("pwned upstream error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 200)),
		)
		metrics.BreachChecksTotal.WithLabelValues("error").Inc()
		return nil, &NetworkError{Err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if isCancellation(err) {
			metrics.BreachChecksTotal.WithLabelValues("aborted").Inc()
			return nil, nil
		}
		metrics.BreachChecksTotal.WithLabelValues("error").Inc()
		return nil, &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	count, err := matchSuffix(string(body), suffix)
	if err != nil {
		c.logger.Error("pwned response malformed",
			zap.String("prefix", prefix),
			zap.Error(err),
		)
		metrics.BreachChecksTotal.WithLabelValues("error").Inc()
		return nil, &NetworkError{Err: err}
	}

	outcome := "clean"
	if count > 0 {
		outcome = "found"
	}
	metrics.BreachChecksTotal.WithLabelValues(outcome).Inc()

	c.logger.Debug("breach check completed",
		zap.String("prefix", prefix),
		zap.Int("count", count),
		zap.Duration("duration", time.Since(start)),
	)

	return &count, nil
}

// matchSuffix scans the CRLF-delimited "SUFFIX:COUNT" records for an
// exact, case-sensitive match of suffix and returns its count. A suffix
// absent from the bucket means the password was not found: count 0.
func matchSuffix(body, suffix string) (int, error) {
	for _, line := range strings.Split(body, "\n") {
		// records are CRLF-delimited; tolerate bare-LF bodies from proxies
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		recSuffix, recCount, found := strings.Cut(line, ":")
		if !found {
			return 0, fmt.Errorf("malformed record %q", truncate(line, 50))
		}
		if recSuffix != suffix {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(recCount))
		if err != nil || count < 0 {
			return 0, fmt.Errorf("malformed count in record %q", truncate(line, 50))
		}
		return count, nil
	}
	return 0, nil
}

// isCancellation reports whether err stems from context cancellation or
// an expired deadline, ours or the caller's.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// truncate limits string length for logging
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
