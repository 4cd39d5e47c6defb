package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"facegate/internal/config"
	"facegate/internal/identity"
	"facegate/internal/logger"
	"facegate/internal/verifier"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run one verification session in the terminal",
	Long: `Run a single verification session without the web server: scan for a
badge, run the liveness challenge and face matching, and print the verdict.
Useful for tuning thresholds and smoke-testing the camera and model server.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	logger.Init(logger.FromEnv())
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, store, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, err := buildVerifierDeps(ctx, cfg, store)
	if err != nil {
		return err
	}

	orch, err := verifier.New(deps, tuningFromConfig(cfg.Thresholds))
	if err != nil {
		return err
	}

	events := orch.AddListener()
	defer orch.RemoveListener(events)

	runner := verifier.NewRunner(orch, cfg.Thresholds.Session.IDTick(), cfg.Thresholds.Session.FaceTick())
	go runner.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println("Present a badge to the camera...")

	for {
		select {
		case <-sigChan:
			fmt.Println("\nAborted")
			return nil
		case event := <-events:
			switch event.Type {
			case verifier.EventState:
				state, _ := event.Data.(verifier.State)
				fmt.Printf("-> %s\n", state)
				if state.Terminal() && state != verifier.StateSuccess {
					return errors.New("verification failed")
				}
			case verifier.EventInstruction:
				if event.Message != "" {
					fmt.Printf("   %s\n", event.Message)
				}
			case verifier.EventVerdict:
				result, ok := event.Data.(*verifier.Result)
				if !ok {
					continue
				}
				fmt.Printf("\nVerified: %s (%s)\n", result.Name, identity.Display(result.Identifier))
				fmt.Printf("  Similarity: %.2f\n", result.Similarity)
				fmt.Printf("  Confidence: %.2f\n", result.Confidence)
				return nil
			}
		}
	}
}
