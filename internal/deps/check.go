// Package deps probes the external services this tool depends on and
// renders a status table, mirroring what operators check by hand before a
// session: the search cluster, the model server, and the optional cache and
// history backends.
package deps

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"customsagent/internal/config"
)

// Status is one probed component.
type Status struct {
	Component string
	OK        bool
	Detail    string
	Required  bool
}

// Checker probes every configured dependency.
type Checker struct {
	cfg   *config.Config
	httpc *http.Client
}

func NewChecker(cfg *config.Config) *Checker {
	return &Checker{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 5 * time.Second},
	}
}

// Run probes all dependencies. Optional components (cache, history) appear
// only when configured and never fail the overall check.
func (c *Checker) Run(ctx context.Context) []Status {
	statuses := []Status{
		c.probeHTTP(ctx, "OpenSearch", c.cfg.Store.URL, true),
		c.probeHTTP(ctx, "Ollama", c.cfg.Ollama.URL+"/api/tags", true),
	}
	if c.cfg.RedisAddr != "" {
		statuses = append(statuses, c.probeRedis(ctx))
	}
	if c.cfg.DatabaseURL != "" {
		statuses = append(statuses, c.probePostgres(ctx))
	}
	return statuses
}

// AllRequiredOK reports whether every required component is up.
func AllRequiredOK(statuses []Status) bool {
	for _, s := range statuses {
		if s.Required && !s.OK {
			return false
		}
	}
	return true
}

func (c *Checker) probeHTTP(ctx context.Context, name, url string, required bool) Status {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Status{Component: name, OK: false, Detail: err.Error(), Required: required}
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return Status{Component: name, OK: false, Detail: "not available", Required: required}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Status{Component: name, OK: false, Detail: fmt.Sprintf("status %d", resp.StatusCode), Required: required}
	}
	return Status{Component: name, OK: true, Detail: "running", Required: required}
}

func (c *Checker) probeRedis(ctx context.Context) Status {
	rdb := redis.NewClient(&redis.Options{Addr: c.cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return Status{Component: "Redis", OK: false, Detail: "not available"}
	}
	return Status{Component: "Redis", OK: true, Detail: "running"}
}

func (c *Checker) probePostgres(ctx context.Context) Status {
	db, err := sql.Open("postgres", c.cfg.DatabaseURL)
	if err != nil {
		return Status{Component: "Postgres", OK: false, Detail: err.Error()}
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return Status{Component: "Postgres", OK: false, Detail: "not available"}
	}
	return Status{Component: "Postgres", OK: true, Detail: "running"}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Render formats the statuses as a terminal table.
func Render(statuses []Status) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-8s %s", "Component", "Status", "Details")))
	b.WriteByte('\n')
	for _, s := range statuses {
		mark := okStyle.Render("✓")
		if !s.OK {
			mark = failStyle.Render("✗")
		}
		detail := s.Detail
		if !s.Required {
			detail = dimStyle.Render(detail + " (optional)")
		}
		fmt.Fprintf(&b, "%-12s %-8s %s\n", s.Component, mark, detail)
	}
	return b.String()
}
