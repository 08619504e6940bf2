// Command verify checks driver certificates against a running engine and
// renders the recommendations as a table. Intended for fleet operators who
// screen batches of hires from the command line.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	platstrings "drivecert/pkg/platform/strings"
)

type verificationResult struct {
	CertificateNumber string     `json:"certificate_number"`
	Found             bool       `json:"found"`
	Valid             bool       `json:"valid"`
	ExpiringSoon      bool       `json:"expiring_soon"`
	ConditionalFit    bool       `json:"conditional_fit"`
	CertificateStatus string     `json:"certificate_status"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	Recommendation    string     `json:"recommendation"`
}

type bulkResponse struct {
	Results []verificationResult `json:"results"`
}

func main() {
	// .env is optional; flags and real env win.
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("DRIVECERT_API_URL", "http://localhost:8080"), "engine base URL")
	file := flag.String("file", "", "file with one certificate number per line")
	flag.Parse()

	certNos := flag.Args()
	if *file != "" {
		fromFile, err := readLines(*file)
		if err != nil {
			color.Red("Failed to read %s: %v", *file, err)
			os.Exit(1)
		}
		certNos = append(certNos, fromFile...)
	}
	// Repeating a number in a batch wastes the bulk budget for no extra
	// information.
	certNos = platstrings.DedupeAndTrim(certNos)
	if len(certNos) == 0 {
		color.Red("No certificate numbers given. Pass them as arguments or with -file.")
		os.Exit(2)
	}

	results, err := verify(*apiURL, certNos)
	if err != nil {
		color.Red("Verification failed: %v", err)
		os.Exit(1)
	}

	color.Cyan("\nDriver Certificate Verification (%d checked)", len(results))
	render(results)
}

func verify(apiURL string, certNos []string) ([]verificationResult, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	if len(certNos) == 1 {
		resp, err := client.Get(strings.TrimRight(apiURL, "/") + "/verify/" + certNos[0])
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("engine returned %s", resp.Status)
		}
		var result verificationResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, err
		}
		return []verificationResult{result}, nil
	}

	body, err := json.Marshal(map[string][]string{"certificate_numbers": certNos})
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(strings.TrimRight(apiURL, "/")+"/verify/bulk", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine returned %s", resp.Status)
	}
	var bulk bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&bulk); err != nil {
		return nil, err
	}
	return bulk.Results, nil
}

func render(results []verificationResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Certificate", "Status", "Expiry", "Recommendation"})

	eligible, conditional, rejected := 0, 0, 0
	for _, r := range results {
		status := r.CertificateStatus
		if !r.Found {
			status = "not found"
		}
		expiry := "-"
		if r.ExpiryDate != nil {
			expiry = r.ExpiryDate.Format("2006-01-02")
		}
		table.Append([]string{r.CertificateNumber, status, expiry, recommendationLabel(r)})

		switch r.Recommendation {
		case "eligible":
			eligible++
		case "eligible_with_conditions":
			conditional++
		default:
			rejected++
		}
	}
	table.Render()

	color.Green("Eligible: %d", eligible)
	color.Yellow("Eligible with conditions: %d", conditional)
	color.Red("Not eligible: %d", rejected)
}

func recommendationLabel(r verificationResult) string {
	switch r.Recommendation {
	case "eligible":
		return "ELIGIBLE"
	case "eligible_with_conditions":
		notes := []string{}
		if r.ExpiringSoon {
			notes = append(notes, "expiring soon")
		}
		if r.ConditionalFit {
			notes = append(notes, "conditional fitness")
		}
		return "CONDITIONAL (" + strings.Join(notes, ", ") + ")"
	default:
		return "NOT ELIGIBLE"
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
