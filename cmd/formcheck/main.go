// Command formcheck fills a payment form from flags, submits it against the
// stub backend and prints every published state as JSON.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"cardform/internal/clock"
	"cardform/internal/config"
	applogger "cardform/internal/logger"
	"cardform/internal/models"
	"cardform/internal/services/payment"
	"cardform/internal/services/paymentform"

	"github.com/spf13/cobra"
)

var Version = "dev"

type formFlags struct {
	number string
	name   string
	month  string
	year   string
	cvv    string
	delay  time.Duration
	fail   string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var f formFlags

	cmd := &cobra.Command{
		Use:           "formcheck",
		Short:         "Fill and submit one payment form, printing every state",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(f)
		},
	}

	cmd.Flags().StringVarP(&f.number, "number", "n", "", "card number")
	cmd.Flags().StringVar(&f.name, "name", "", "cardholder name")
	cmd.Flags().StringVar(&f.month, "month", "", "expiry month (MM)")
	cmd.Flags().StringVar(&f.year, "year", "", "expiry year (YY)")
	cmd.Flags().StringVar(&f.cvv, "cvv", "", "card verification value")
	cmd.Flags().DurationVar(&f.delay, "delay", 200*time.Millisecond, "simulated backend delay")
	cmd.Flags().StringVar(&f.fail, "fail", "", "make the backend fail with this message")

	return cmd
}

func runForm(f formFlags) error {
	config.LoadEnv()
	cfg := config.Load()

	zapLogger := applogger.New(cfg.LogLevel, applogger.ParseFormat(cfg.LogFormat))
	defer func() { _ = zapLogger.Sync() }()
	log := zapLogger.Named(applogger.ComponentForm).Sugar()

	backend := payment.NewStubBackend(f.delay)
	if f.fail != "" {
		backend.FailWith = errors.New(f.fail)
	}

	ctrl := paymentform.NewController(clock.NewSystem(cfg.Location()), backend,
		paymentform.WithID("formcheck"),
		paymentform.WithLogger(log),
	)
	defer ctrl.Close()

	states := make(chan models.FormState, 64)
	unsubscribe := ctrl.Subscribe(func(s models.FormState) { states <- s })
	defer unsubscribe()

	ctrl.UpdateCardNumber(f.number)
	ctrl.UpdateCardholderName(f.name)
	if !ctrl.UpdateExpiryMonth(f.month) {
		log.Warnf("expiry month %q rejected", f.month)
	}
	if !ctrl.UpdateExpiryYear(f.year) {
		log.Warnf("expiry year %q rejected", f.year)
	}
	if !ctrl.UpdateCVV(f.cvv) {
		log.Warn("cvv rejected")
	}

	if err := ctrl.ProcessPayment(); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	submitted := ctrl.State().Version

	enc := json.NewEncoder(os.Stdout)
	timeout := time.After(f.delay + 5*time.Second)
	for {
		select {
		case s := <-states:
			_ = enc.Encode(s)
			switch {
			case s.Version == submitted && s.HasValidationErrors:
				return errors.New("form has validation errors")
			case s.Status == models.SubmissionSucceeded:
				return nil
			case s.Status == models.SubmissionFailed:
				return errors.New(s.GeneralError)
			}
		case <-timeout:
			return errors.New("timed out waiting for the backend")
		}
	}
}
