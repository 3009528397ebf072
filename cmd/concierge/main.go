package main

//  ____                                ____                   _
// |  _ \    __ _   _ __     __ _    __|  _ \    ___   ___  | | __
// | |_) |  / _` | | '_ \   / _` |  / _ \ | | |  / _ \ / __| | |/ /
// |  _ <  | (_| | | | | | | (_| | |  __/ |_| | |  __/ \__ \ |   <
// |_| \_\  \__,_| |_| |_|  \__, |  \___|____/   \___| |___/ |_|\_\
//                          |___/   rental concierge

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexschlessinger/pollytool/sessions"
	"github.com/mazznoer/colorgrad"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"rangedesk/concierge/internal/agent"
	"rangedesk/concierge/internal/config"
	"rangedesk/concierge/internal/core"
	"rangedesk/concierge/internal/llm"
	"rangedesk/concierge/internal/server"
	"rangedesk/concierge/internal/shop"
	"rangedesk/concierge/internal/tools"
)

const version = "0.3"

func main() {
	fmt.Printf("%s\n", getBanner())

	cmd := &cli.Command{
		Name:    "concierge",
		Usage:   "conversational concierge for the rental counter",
		Version: version,
		Flags:   config.GetFlags(),
		Action:  runServer,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		// Print to stderr first in case logger isn't initialized
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		zap.S().Fatal(err)
	}
}

func getBanner() string {
	banner := `
 ____                                ____                   _
|  _ \    __ _   _ __     __ _    __|  _ \    ___   ___  | | __
| |_) |  / _' | | '_ \   / _' |  / _ \ | | |  / _ \ / __| | |/ /
|  _ <  | (_| | | | | | | (_| | |  __/ |_| | |  __/ \__ \ |   <
|_| \_\  \__,_| |_| |_|  \__, |  \___|____/   \___| |___/ |_|\_\
                         |___/   rental concierge  [v` + version + `]
`
	grad, _ := colorgrad.NewGradient().
		HtmlColors("#c2410cff", "#fdfdfdff").
		Build()

	lines := strings.Split(banner, "\n")

	// Find max line length for gradient spread
	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}

	colors := grad.Colors(uint(maxLen))
	var coloredBanner strings.Builder

	for _, line := range lines {
		for i, ch := range line {
			r, g, b, _ := colors[i].RGBA255()
			coloredBanner.WriteString(fmt.Sprintf("\x1b[38;2;%d;%d;%dm%c", r, g, b, ch))
		}
		coloredBanner.WriteString("\x1b[0m\n")
	}

	return coloredBanner.String()
}

func runServer(ctx context.Context, c *cli.Command) error {
	cfg := config.NewConfiguration(c)
	core.InitLogger(cfg.Agent.Verbose)
	defer zap.L().Sync() // Flushes buffer, if any

	logger := core.GetLogger()
	if cfg.Agent.Verbose {
		cfg.PrintConfig()
	}

	prompt, err := cfg.SystemPrompt()
	if err != nil {
		return fmt.Errorf("system prompt: %w", err)
	}

	client := llm.NewPolly(cfg.API, logger)
	if !client.HasCredentials(cfg.Model.Model) {
		logger.Warnw("No API key configured for model provider; chat requests will fail",
			"model", cfg.Model.Model,
		)
	}

	shopClient := shop.NewClient(cfg.Shop.BaseURL, cfg.Shop.ConsumerKey, cfg.Shop.ConsumerSecret, cfg.Shop.Timeout, logger)
	registry := tools.NewRegistry(tools.Deps{
		Catalog:      shopClient,
		Availability: shopClient,
		Orders:       shopClient,
		Shop:         cfg.Shop,
		Logger:       logger,
	})
	executor := tools.NewExecutor(registry, logger)

	store := sessions.NewSyncMapSessionStore(&sessions.Metadata{
		MaxHistory:   cfg.Agent.MaxHistory,
		TTL:          10 * time.Minute,
		SystemPrompt: prompt,
	})

	loop := agent.New(client, executor, store, cfg, logger)
	srv := server.New(loop, cfg, logger)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
