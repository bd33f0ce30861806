package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"boorudl/internal/downloader"
	"boorudl/pkg/booru"
	"boorudl/pkg/config"
	"boorudl/pkg/httpclient"
	"boorudl/pkg/logger"
	"boorudl/pkg/metrics"
	"boorudl/pkg/pager"
	"boorudl/pkg/ui"
)

var (
	// Download flags
	source          string
	tags            []string
	excludeTags     []string
	outputDir       string
	startPage       int
	parallel        int
	credentialsFile string
	metricsFile     string
)

func init() {
	rootCmd.Flags().StringVarP(&source, "source", "s", config.SourceGelbooru, "booru to search (gelbooru, rule34)")
	rootCmd.Flags().StringArrayVarP(&tags, "tags", "t", nil, "tags to search for (repeatable, space separated, or trailing arguments)")
	rootCmd.Flags().StringArrayVar(&excludeTags, "exclude-tags", nil, "tags to exclude from the search (repeatable)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "./downloads", "output directory for downloads")
	rootCmd.Flags().IntVarP(&startPage, "page", "p", 0, "page to start from")
	rootCmd.Flags().IntVarP(&parallel, "parallel", "j", downloader.DefaultParallel, "number of concurrent downloads per page")
	rootCmd.Flags().StringVar(&credentialsFile, "credentials", "credentials.json", "path to credentials.json")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
}

// searchTags merges --tags with trailing positional arguments, so that
// "--tags cat dog" searches for both
func searchTags(flagTags, args []string) []string {
	var merged []string
	for _, tag := range append(append([]string{}, flagTags...), args...) {
		merged = append(merged, strings.Fields(tag)...)
	}
	return merged
}

// collectFlags returns the flags the user actually set, keyed the way
// config.MergeCommandLineFlags expects
func collectFlags(cmd *cobra.Command, args []string) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("source") {
		flags["source"] = source
	}
	if all := searchTags(tags, args); len(all) > 0 {
		flags["tags"] = all
	}
	if changed("exclude-tags") {
		flags["exclude-tags"] = searchTags(excludeTags, nil)
	}
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("page") {
		flags["page"] = startPage
	}
	if changed("parallel") {
		flags["parallel"] = parallel
	}
	if changed("credentials") {
		flags["credentials"] = credentialsFile
	}
	if changed("metrics-file") {
		flags["metrics-file"] = metricsFile
	}
	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	// Quiet also silences the console logger
	if quiet {
		flags["log-level"] = "error"
	}
	if changed("log-file") {
		flags["log-file"] = logFile
	}
	if changed("no-color") {
		flags["no-color"] = noColor
	}

	return flags
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd, args))
	if err != nil {
		return err
	}
	if err := cfg.ValidateSearch(); err != nil {
		_ = cmd.Help()
		return err
	}

	ui.Configure(cmd.OutOrStdout(), cfg.Logging.NoColor)
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("boorudl starting")

	creds, err := config.LoadCredentials(cfg.Booru.CredentialsFile)
	if err != nil {
		log.WithError(err).Error("Failed to load credentials")
		return err
	}

	ui.PrintBanner()
	ui.PrintInfo("Source", cfg.Booru.Source)
	ui.PrintInfo("Tags", strings.Join(cfg.Search.Tags, " "))
	if len(cfg.Search.ExcludeTags) > 0 {
		ui.PrintInfo("Excluding", strings.Join(cfg.Search.ExcludeTags, " "))
	}
	ui.PrintInfo("Output", cfg.Download.OutputDirectory)

	m := metrics.New()
	start := time.Now()
	summary, runErr := download(cmd.Context(), cfg, *creds, m, log)

	ui.PrintSummary(ui.RunSummary{
		Pages:     summary.Pages,
		Posts:     summary.Posts,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Elapsed:   time.Since(start),
	})

	if err := m.WriteTextfile(cfg.Metrics.TextFile); err != nil {
		log.WithError(err).WithField("path", cfg.Metrics.TextFile).Warn("Failed to write metrics file")
	}

	if runErr != nil {
		log.WithError(runErr).Error("Download run failed")
		return runErr
	}

	log.InfoWithFields("Download run completed", map[string]interface{}{
		"pages":     summary.Pages,
		"posts":     summary.Posts,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	})
	ui.PrintSuccess("Done")
	return nil
}

// download wires the search client, downloader and pager for one run
func download(ctx context.Context, cfg *config.Config, creds config.Credentials, m *metrics.Metrics, log logger.Logger) (pager.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	httpClient := httpclient.New(httpclient.Options{
		ConnectTimeout:      cfg.Download.ConnectTimeout,
		ReadTimeout:         cfg.Download.ReadTimeout,
		MaxIdleConnsPerHost: cfg.Download.Parallel,
	})

	var client *booru.Client
	if cfg.Booru.BaseURL != "" {
		client = booru.NewClient(httpClient, cfg.Booru.BaseURL, creds, log)
	} else {
		var err error
		client, err = booru.NewClientForSource(httpClient, cfg.Booru.Source, creds, log)
		if err != nil {
			return pager.Summary{}, err
		}
	}
	if cfg.Booru.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Booru.UserAgent)
	}

	dl := downloader.New(
		downloader.NewHTTPFetcher(httpClient, cfg.Booru.UserAgent),
		downloader.Options{
			OutputDir: cfg.Download.OutputDirectory,
			Parallel:  cfg.Download.Parallel,
		},
		m,
		log,
	)

	p := pager.New(client, dl, m, log)
	p.SetProgress(func(r pager.PageReport) {
		ui.PrintInfo(fmt.Sprintf("Page %d", r.Page), fmt.Sprintf("%d/%d downloaded", r.Succeeded, r.Posts))
	})

	return p.Run(ctx, booru.SearchRequest{
		Tags:        cfg.Search.Tags,
		ExcludeTags: cfg.Search.ExcludeTags,
		Page:        cfg.Search.StartPage,
		Limit:       booru.DefaultLimit,
	})
}
