package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"customsagent/internal/config"
	"customsagent/internal/deps"
	"customsagent/internal/graph"
	"customsagent/internal/history"
	"customsagent/internal/ingestion"
	"customsagent/internal/server"
	"customsagent/internal/store"
)

func newQueryCmd(cfg **config.Config, logger **log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "Interactive question loop over the declarations index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *cfg, *logger)
			if err != nil {
				return err
			}
			defer a.close()
			return runREPL(cmd.Context(), a)
		},
	}
}

func runREPL(ctx context.Context, a *app) error {
	fmt.Println("Ставте питання про митні декларації. Введіть 'exit' для виходу.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "exit" {
			break
		}

		state := a.ask(ctx, question)
		printState(state)
	}
	return scanner.Err()
}

func printState(state *graph.State) {
	if state.Err != nil {
		fmt.Println("Помилка:", graph.UserMessage(state.Err))
		return
	}
	fmt.Println("Відповідь:", state.Response)
}

func newAskCmd(cfg **config.Config, logger **log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *cfg, *logger)
			if err != nil {
				return err
			}
			defer a.close()

			state := a.ask(cmd.Context(), args[0])
			printState(state)
			if state.Err != nil {
				return fmt.Errorf("question failed: %w", state.Err)
			}
			return nil
		},
	}
}

func newServeCmd(cfg **config.Config, logger **log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *cfg, *logger)
			if err != nil {
				return err
			}
			defer a.close()

			srv := server.New((*cfg).HTTPAddr, a.ask, a.health, *logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				(*logger).Info("shutting down", "signal", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
}

func newIngestCmd(cfg **config.Config, logger **log.Logger) *cobra.Command {
	var recreate bool
	cmd := &cobra.Command{
		Use:   "ingest <files...>",
		Short: "Load exporter CSV files into the declarations index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			osClient, err := store.NewOpenSearch(c.Store, *logger)
			if err != nil {
				return err
			}
			if err := osClient.Ping(cmd.Context()); err != nil {
				return err
			}
			if recreate {
				if err := osClient.RecreateIndex(cmd.Context(), c.Store.Index); err != nil {
					return err
				}
			}

			loader := ingestion.NewLoader(osClient, c.Store.Index, *logger)
			total, err := loader.Load(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Printf("Завантажено %d записів до індексу %s\n", total, c.Store.Index)
			return nil
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate the index before loading")
	return cmd
}

func newSchemaCmd(cfg **config.Config, logger **log.Logger) *cobra.Command {
	var recreate bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Ensure the index exists and report mapping drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			osClient, err := store.NewOpenSearch(c.Store, *logger)
			if err != nil {
				return err
			}
			if err := osClient.Ping(cmd.Context()); err != nil {
				return err
			}

			if recreate {
				if err := osClient.RecreateIndex(cmd.Context(), c.Store.Index); err != nil {
					return err
				}
				fmt.Printf("Індекс %s перестворено\n", c.Store.Index)
				return nil
			}

			created, err := osClient.EnsureIndex(cmd.Context(), c.Store.Index)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Індекс %s створено\n", c.Store.Index)
				return nil
			}

			drift, err := osClient.MappingDrift(cmd.Context(), c.Store.Index)
			if err != nil {
				return err
			}
			if len(drift) == 0 {
				fmt.Printf("Індекс %s відповідає схемі\n", c.Store.Index)
				return nil
			}
			fmt.Printf("Індекс %s відхиляється від схеми:\n", c.Store.Index)
			for _, line := range drift {
				fmt.Println(" -", line)
			}
			return fmt.Errorf("mapping drift detected; run with --recreate to rebuild")
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate the index")
	return cmd
}

func newHistoryCmd(cfg **config.Config, logger **log.Logger) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent questions and outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if c.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not configured")
			}
			h, err := history.Open(c.DatabaseURL, *logger)
			if err != nil {
				return err
			}
			defer h.Close()

			entries, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				outcome := e.Answer
				if e.Error != "" {
					outcome = "помилка: " + e.Error
				}
				fmt.Printf("[%s] (%s, %s) %s\n  %s\n",
					e.CreatedAt.Format("2006-01-02 15:04"), e.Status, e.Duration, e.Question, outcome)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}

func newCheckDepsCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "checkdeps",
		Short: "Check that required services are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.NewChecker(*cfg).Run(cmd.Context())
			fmt.Println(deps.Render(statuses))
			if !deps.AllRequiredOK(statuses) {
				return fmt.Errorf("some required services are not running")
			}
			fmt.Println("Усі необхідні сервіси працюють.")
			return nil
		},
	}
}
