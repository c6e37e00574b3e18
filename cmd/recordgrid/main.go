// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The recordgrid demo starts the in-memory demo backend, points the grid
// engine at it, and walks through a short interaction: load, filter, sort,
// group, edit, share. It doubles as a smoke test of the full stack.
package main

import (
	"context"
	"net/http/httptest"
	"net/url"
	"os"
	"time"

	"github.com/united-manufacturing-hub/recordgrid/internal/demobackend"
	"github.com/united-manufacturing-hub/recordgrid/pkg/client"
	"github.com/united-manufacturing-hub/recordgrid/pkg/config"
	"github.com/united-manufacturing-hub/recordgrid/pkg/editsession"
	"github.com/united-manufacturing-hub/recordgrid/pkg/filtercodec"
	"github.com/united-manufacturing-hub/recordgrid/pkg/grid"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/metrics"
	"github.com/united-manufacturing-hub/recordgrid/pkg/sentry"
	"github.com/united-manufacturing-hub/recordgrid/pkg/settings"
	"github.com/united-manufacturing-hub/recordgrid/pkg/version"
)

func main() {
	// Initialize the global logger first thing
	logger.Initialize()

	sentry.InitSentry(version.GetAppVersion(), true)

	log := logger.For(logger.ComponentGrid)
	log.Info("Starting recordgrid demo...")

	cfg, err := config.Load(os.Getenv("RECORDGRID_CONFIG"))
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Failed to load config: %w", err)
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		server := metrics.SetupMetricsEndpoint(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to shutdown metrics server: %w", err)
			}
		}()
	}

	backend := demobackend.New()
	backendServer := httptest.NewServer(backend.Router())
	defer backendServer.Close()
	log.Infof("Demo backend listening on %s", backendServer.URL)

	if cfg.BackendURL == "" {
		cfg.BackendURL = backendServer.URL
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c := client.NewClient(cfg.BackendURL)
	if err := c.CheckBackendVersion(ctx); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Backend rejected: %w", err)
		os.Exit(1)
	}

	g := grid.NewGrid(cfg, "demo-orders", c, settings.NewMemoryStore(), demobackend.Schema())

	if err := g.Init(ctx, demobackend.TypeOrder, "", url.Values{}); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "First load failed: %w", err)
		os.Exit(1)
	}
	page := g.Page()
	log.Infof("Loaded %d rows over %d columns", len(page.Rows), len(page.Columns))

	if err := g.FilterChanged(ctx, demobackend.TypeOrder, filtercodec.OpContains, "ing"); err != nil {
		log.Warnf("Filter failed: %v", err)
	}
	time.Sleep(cfg.FilterDebounce + 100*time.Millisecond)
	log.Infof("Filtered to %d rows", len(g.Page().Rows))

	if err := g.SortToggled(ctx, "qty"); err != nil {
		log.Warnf("Sort failed: %v", err)
	}

	g.GroupColumnsChanged([]string{"customer"})
	log.Infof("Grouped by customer: %d display rows", len(g.GroupPlan().Order))

	session, err := g.CellEditIntent(ctx, "qty", 0)
	if err != nil {
		log.Warnf("Edit not acquirable: %v", err)
	} else {
		session.SetDraft("6")
		if moved, err := g.NavigateEdit(ctx, editsession.DirDown); err != nil {
			log.Warnf("Navigation failed: %v", err)
		} else if moved {
			// Navigation committed the first edit and acquired the cell below.
			if err := g.CancelEdit(ctx); err != nil {
				log.Warnf("Cancel failed: %v", err)
			}
		}
		log.Infof("Edited qty, first row now %v", g.Page().Rows[0])
	}

	token, err := g.ShareToken()
	if err != nil {
		log.Warnf("Share token failed: %v", err)
	} else {
		log.Infof("Share this view: ?gridstate=%s", token)
	}

	_ = logger.Sync()
}
