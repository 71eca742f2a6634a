// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

var errInvalidURL = errors.New("invalid URL")

func QuoteIdentifier(s string) string {
	if IsQuotedIdentifier(s) {
		return s
	}
	return pq.QuoteIdentifier(s)
}

func QuoteQualifiedIdentifier(schema, table string) string {
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
}

func IsQuotedIdentifier(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

// ParsePoolConfig parses the connection URL on input. Passwords with reserved
// URL characters are escaped before retrying when the URL can't be parsed as
// is.
func ParsePoolConfig(pgurl string) (*pgxpool.Config, error) {
	pgCfg, err := pgxpool.ParseConfig(pgurl)
	if err == nil {
		return pgCfg, nil
	}

	urlErr := &url.Error{}
	if !errors.As(err, &urlErr) {
		return nil, fmt.Errorf("failed parsing postgres connection string: %w", MapError(err))
	}

	escapedURL, err := escapeConnectionURL(pgurl)
	if err != nil {
		return nil, fmt.Errorf("failed to escape connection URL: %w", err)
	}
	pgCfg, err = pgxpool.ParseConfig(escapedURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing postgres connection string: %w", MapError(err))
	}
	return pgCfg, nil
}

var postgresURLRegex = regexp.MustCompile(`^(postgres(?:ql)?://)([^@]+?)@(.+)$`)

func escapeConnectionURL(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "postgresql://") && !strings.HasPrefix(rawURL, "postgres://") {
		return rawURL, nil
	}

	matches := postgresURLRegex.FindStringSubmatch(rawURL)
	if matches == nil {
		return "", errInvalidURL
	}
	scheme, userInfo, hostAndPath := matches[1], matches[2], matches[3]

	// the password starts after the first colon, same as psql
	username, password, found := strings.Cut(userInfo, ":")
	if !found {
		return rawURL, nil
	}
	if username == "" {
		return "", errInvalidURL
	}

	// avoid double encoding already escaped passwords
	if strings.Contains(password, "%") {
		if unescaped, err := url.PathUnescape(password); err == nil {
			password = unescaped
		}
	}

	return fmt.Sprintf("%s%s:%s@%s", scheme, username, url.QueryEscape(password), hostAndPath), nil
}

const (
	connectTimeout    = 90 * time.Second
	keepaliveIdle     = 15 * time.Second
	keepaliveInterval = 15 * time.Second
	keepaliveCount    = 9
)

// configureTCPKeepalive makes broken connections surface as errors instead of
// hanging the sink.
func configureTCPKeepalive(cfg *pgx.ConnConfig) {
	cfg.ConnectTimeout = connectTimeout
	cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := &net.Dialer{
			Timeout: connectTimeout,
			KeepAliveConfig: net.KeepAliveConfig{
				Enable:   true,
				Idle:     keepaliveIdle,
				Interval: keepaliveInterval,
				Count:    keepaliveCount,
			},
		}
		return d.DialContext(ctx, network, addr)
	}
}
