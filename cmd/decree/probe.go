package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/daily-decree/internal/config"
	"github.com/talgya/daily-decree/internal/llm"
)

var probeRequest = llm.Request{
	Prompt:            `Reply with {"ok": true}.`,
	SystemInstruction: "You are a health check. Answer in JSON.",
	Schema: llm.Schema{
		"type":       "OBJECT",
		"properties": map[string]any{"ok": map[string]any{"type": "BOOLEAN"}},
		"required":   []string{"ok"},
	},
	Marker: "ok",
}

func probeCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Send a minimal request to the primary and every backup model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			gemini, backups := providers(c)
			limiter := llm.NewRateLimiter(c.RateLimit, c.RateWindow)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tRESULT\tTIME")

			failed := 0
			for i, p := range append([]llm.Provider{gemini}, backups...) {
				timeout := c.BackupTimeout
				if i == 0 {
					timeout = c.PrimaryTimeout
				}
				// A one-provider chain reports the provider's own error.
				chain := llm.NewChain(p, limiter, llm.WithTimeouts(timeout, timeout))

				start := time.Now()
				_, err := chain.Generate(cmd.Context(), probeRequest)
				result := "ok"
				if err != nil {
					result = err.Error()
					failed++
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name(), p.Model(), result, time.Since(start).Round(time.Millisecond))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d providers failed", failed, len(backups)+1)
			}
			return nil
		},
	}
}
