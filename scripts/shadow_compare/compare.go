package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string            `json:"method"`
	Path     string            `json:"path"`
	Query    map[string]string `json:"query"`
	Critical bool              `json:"critical"`
	// Ignore lists object keys dropped before comparing bodies, such as
	// generated identifiers that differ between deployments.
	Ignore []string `json:"ignore"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	LegacyCount    int
	GoCount        int
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func (c comparison) matches() bool {
	return c.StatusMatch && c.BodyMatch
}

type runner struct {
	client     *http.Client
	goBase     string
	legacyBase string
	token      string
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg targetsFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func (r *runner) compare(tgt target) comparison {
	comp := comparison{Target: tgt}

	goStatus, goBody, goDur, err := r.fetch(r.goBase, tgt)
	if err != nil {
		comp.Error = fmt.Errorf("go request failed: %w", err)
		return comp
	}
	legacyStatus, legacyBody, legacyDur, err := r.fetch(r.legacyBase, tgt)
	if err != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", err)
		return comp
	}

	comp.GoStatus, comp.LegacyStatus = goStatus, legacyStatus
	comp.DurationGo, comp.DurationLegacy = goDur, legacyDur
	comp.StatusMatch = goStatus == legacyStatus
	comp.GoCount = countEntries(goBody)
	comp.LegacyCount = countEntries(legacyBody)
	comp.BodyMatch = bodiesEqual(goBody, legacyBody, tgt.Ignore)
	return comp
}

func (r *runner) fetch(base string, tgt target) (int, []byte, time.Duration, error) {
	if r.client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	req, err := http.NewRequest(requestMethod(tgt), requestURL(base, tgt), nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, time.Since(start), nil
}

func requestMethod(tgt target) string {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		return http.MethodGet
	}
	return method
}

func requestURL(base string, tgt target) string {
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := strings.TrimRight(base, "/") + path
	if len(tgt.Query) == 0 {
		return u
	}
	values := url.Values{}
	for k, v := range tgt.Query {
		values.Set(k, v)
	}
	return u + "?" + values.Encode()
}

// countEntries returns the array length of a JSON list body, or -1.
func countEntries(body []byte) int {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		return -1
	}
	return len(list)
}

func bodiesEqual(a, b []byte, ignore []string) bool {
	if len(ignore) == 0 && bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	skip := make(map[string]struct{}, len(ignore))
	for _, k := range ignore {
		skip[k] = struct{}{}
	}
	return reflect.DeepEqual(normalize(aj, skip), normalize(bj, skip))
}

func normalize(v interface{}, skip map[string]struct{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if _, drop := skip[k]; drop {
				continue
			}
			out[k] = normalize(child, skip)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = normalize(child, skip)
		}
		return out
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
	}
	return v
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Shadow Compare Report")
	fmt.Fprintln(w, "======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.matches() {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s %s\n", status, requestMethod(res.Target), requestURL("", res.Target))
		fmt.Fprintf(w, "  Go Status: %d (%s, %d entries)\n", res.GoStatus, res.DurationGo, res.GoCount)
		fmt.Fprintf(w, "  Legacy Status: %d (%s, %d entries)\n", res.LegacyStatus, res.DurationLegacy, res.LegacyCount)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
		} else {
			fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
