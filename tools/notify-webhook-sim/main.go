// notify-webhook-sim is a local stand-in for an SMS/notification gateway:
// it accepts the scheduler's webhook posts, optionally checks the bearer
// token, and prints each reminder to stdout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	var (
		addr  = flag.String("addr", getenv("ADDR", ":9099"), "listen address")
		token = flag.String("token", getenv("NOTIFY_WEBHOOK_TOKEN", ""), "expected bearer token (empty disables the check)")
		fail  = flag.Bool("fail", false, "respond 500 to every request (for retry testing)")
	)
	flag.Parse()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if *token != "" && r.Header.Get("Authorization") != "Bearer "+*token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var payload struct {
			To      string `json:"to"`
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}

		if *fail {
			fmt.Printf("[%s] REJECTED to=%s subject=%q\n", time.Now().Format(time.TimeOnly), payload.To, payload.Subject)
			http.Error(w, "simulated failure", http.StatusInternalServerError)
			return
		}

		fmt.Printf("[%s] to=%s subject=%q\n%s\n---\n",
			time.Now().Format(time.TimeOnly), payload.To, payload.Subject, indent(payload.Body))
		w.WriteHeader(http.StatusNoContent)
	})

	fmt.Printf("notify-webhook-sim listening on %s\n", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
