package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/OFFIS-RIT/newsgraph/internal/config"
	"github.com/OFFIS-RIT/newsgraph/internal/pipeline"
	"github.com/OFFIS-RIT/newsgraph/internal/queue"
	"github.com/OFFIS-RIT/newsgraph/internal/util"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger/console"
)

const usage = `usage: pipeline <command> [question]

commands:
  fetch           fetch headlines and write the article file
  build           rebuild the knowledge graph from the article file
  index           create and fill the article vector index
  ask <question>  answer a question from the graph and index
  all [question]  run fetch, build and index, then answer question if given
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Format: util.GetEnv("LOG_FORMAT"),
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args[0], strings.TrimSpace(strings.Join(args[1:], " "))); err != nil {
		if errors.Is(err, queue.ErrUnknownStage) {
			flag.Usage()
			os.Exit(2)
		}
		logger.Fatal("Pipeline failed", "command", args[0], "err", err)
	}
}

func run(ctx context.Context, command, question string) error {
	switch command {
	case queue.StageFetch, queue.StageBuild, queue.StageIndex, "ask", pipeline.StageAll:
	default:
		return fmt.Errorf("%w: %q", queue.ErrUnknownStage, command)
	}
	if command == "ask" && question == "" {
		return fmt.Errorf("ask needs a question")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p, err := pipeline.New(ctx, cfg, command)
	if err != nil {
		return err
	}
	defer p.Close(context.Background())

	if command != "ask" {
		if err := p.RunStage(ctx, command); err != nil {
			return err
		}
	}

	if question != "" && (command == "ask" || command == pipeline.StageAll) {
		fmt.Println(p.Ask(ctx, question))
	}

	if ai := p.AIClient(); ai != nil {
		metrics := ai.GetMetrics()
		logger.Info(
			"AI Metrics",
			"input_tokens", metrics.InputTokens,
			"output_tokens", metrics.OutputTokens,
			"total_tokens", metrics.TotalTokens,
			"requests", metrics.Requests,
		)
	}
	return nil
}
