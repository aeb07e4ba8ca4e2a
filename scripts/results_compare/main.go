// Command results_compare replays public result lookups against two deployments and reports
// exam numbers whose computed results differ. It is run before promoting a release or after
// changing the active grade configuration on a staging copy.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// volatileFields change on every computation and are ignored when comparing reports.
var volatileFields = []string{"generated_at", "processing_time_ms"}

type target struct {
	ExamNumber string `yaml:"exam_number"`
	ReportCard bool   `yaml:"report_card"`
	Critical   bool   `yaml:"critical"`
}

func (t target) path(prefix string) string {
	p := strings.TrimRight(prefix, "/") + "/results/" + url.PathEscape(t.ExamNumber)
	if t.ReportCard {
		p += "/report-card"
	}
	return p
}

type targetsFile struct {
	APIPrefix string   `yaml:"api_prefix"`
	Targets   []target `yaml:"targets"`
}

type comparison struct {
	Target            target
	BaselineStatus    int
	CandidateStatus   int
	StatusMatch       bool
	BodyMatch         bool
	Error             error
	DurationBaseline  time.Duration
	DurationCandidate time.Duration
}

func (c comparison) differs() bool {
	return c.Error != nil || !c.StatusMatch || !c.BodyMatch
}

func main() {
	var (
		baselineBase  string
		candidateBase string
		targetsPath   string
		timeout       time.Duration
	)

	flag.StringVar(&baselineBase, "baseline", "http://localhost:8080", "Baseline API base URL")
	flag.StringVar(&candidateBase, "candidate", "http://localhost:8081", "Candidate API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "results_compare", "targets.yaml"), "Path to YAML targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	file, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range file.Targets {
		comp := compareTarget(client, baselineBase, candidateBase, file.APIPrefix, t)
		if comp.differs() {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(os.Stdout, comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) (*targetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTargets(data)
}

func parseTargets(data []byte) (*targetsFile, error) {
	var file targetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.APIPrefix == "" {
		file.APIPrefix = "/api/v1"
	}
	kept := file.Targets[:0]
	for _, t := range file.Targets {
		t.ExamNumber = strings.ToUpper(strings.TrimSpace(t.ExamNumber))
		if t.ExamNumber != "" {
			kept = append(kept, t)
		}
	}
	file.Targets = kept
	if len(file.Targets) == 0 {
		return nil, errors.New("no exam numbers defined")
	}
	return &file, nil
}

func compareTarget(client *http.Client, baselineBase, candidateBase, prefix string, tgt target) comparison {
	comp := comparison{Target: tgt}
	baseBody, baseStatus, baseDur, baseErr := fetch(client, baselineBase, tgt.path(prefix))
	candBody, candStatus, candDur, candErr := fetch(client, candidateBase, tgt.path(prefix))
	comp.DurationBaseline = baseDur
	comp.DurationCandidate = candDur

	if baseErr != nil {
		comp.Error = fmt.Errorf("baseline request failed: %w", baseErr)
		return comp
	}
	if candErr != nil {
		comp.Error = fmt.Errorf("candidate request failed: %w", candErr)
		return comp
	}

	comp.BaselineStatus = baseStatus
	comp.CandidateStatus = candStatus
	comp.StatusMatch = baseStatus == candStatus
	comp.BodyMatch = reportsEqual(baseBody, candBody)
	return comp
}

func fetch(client *http.Client, base, path string) ([]byte, int, time.Duration, error) {
	if client == nil {
		return nil, 0, 0, errors.New("nil client")
	}
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, time.Since(start), fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, time.Since(start), nil
}

// reportsEqual compares two response envelopes, ignoring meta and volatile fields.
func reportsEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj map[string]interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	delete(aj, "meta")
	delete(bj, "meta")
	var av, bv interface{} = aj, bj
	normalize(&av)
	normalize(&bv)
	return reflect.DeepEqual(av, bv)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for _, field := range volatileFields {
			delete(val, field)
		}
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Results Compare Report")
	fmt.Fprintln(w, "======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if res.differs() {
			status = "DIFF"
		}
		kind := "lookup"
		if res.Target.ReportCard {
			kind = "report-card"
		}
		fmt.Fprintf(w, "[%s] %s (%s)\n", status, res.Target.ExamNumber, kind)
		fmt.Fprintf(w, "  Baseline: %d (%s)\n", res.BaselineStatus, res.DurationBaseline)
		fmt.Fprintf(w, "  Candidate: %d (%s)\n", res.CandidateStatus, res.DurationCandidate)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
		} else {
			fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
