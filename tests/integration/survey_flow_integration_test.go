//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("OBE_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestSurveyJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	email := fmt.Sprintf("integration_%d@example.edu", time.Now().UnixNano())
	var registerResp struct {
		Token    string `json:"token"`
		TenantID string `json:"tenant_id"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
		"email":       email,
		"password":    "Secret123!",
		"tenant_name": "Integration faculty",
	}, http.StatusCreated, &registerResp)
	if registerResp.Token == "" || registerResp.TenantID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}
	token := registerResp.Token

	var survey struct {
		ID string `json:"id"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/surveys", token, map[string]any{
		"title":     "Integration exit survey",
		"course_id": "IT100",
		"questions": []map[string]any{
			{"id": "clo1", "type": "likert", "prompt": "CLO1 was achieved", "required": true},
			{"id": "rate", "type": "rating", "prompt": "Overall", "min_value": 1, "max_value": 5},
		},
	}, http.StatusCreated, &survey)
	if survey.ID == "" {
		t.Fatalf("expected survey id in response")
	}

	var rejected struct {
		Fields map[string]string `json:"fields"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/surveys/"+survey.ID+"/responses", "", map[string]any{
		"answers": []map[string]any{{"question_id": "rate", "value": 3}},
	}, http.StatusUnprocessableEntity, &rejected)
	if _, ok := rejected.Fields["clo1"]; !ok {
		t.Fatalf("expected clo1 to be reported missing, got %+v", rejected.Fields)
	}

	for _, v := range []any{4, 5} {
		doJSON(t, client, http.MethodPost, base+"/api/surveys/"+survey.ID+"/responses", "", map[string]any{
			"respondent": "integration",
			"answers": []map[string]any{
				{"question_id": "clo1", "value": "Agree"},
				{"question_id": "rate", "value": v},
			},
		}, http.StatusCreated, nil)
	}

	var summary struct {
		TotalSubmissions int `json:"total_submissions"`
		Questions        []struct {
			QuestionID string `json:"question_id"`
			Result     struct {
				Kind    string  `json:"kind"`
				Total   int     `json:"total"`
				Average float64 `json:"average"`
			} `json:"result"`
		} `json:"questions"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/surveys/"+survey.ID+"/analytics", token, nil, http.StatusOK, &summary)
	if summary.TotalSubmissions != 2 || len(summary.Questions) != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := summary.Questions[1].Result; got.Kind != "rating" || got.Average != 4.5 {
		t.Fatalf("unexpected rating aggregate: %+v", got)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/surveys/"+survey.ID+"/export?format=long", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	csvData, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export data: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status %d body %s", resp.StatusCode, string(csvData))
	}
	if !strings.Contains(string(csvData), "integration,clo1,Agree") {
		t.Fatalf("export csv missing answers; csv=%s", string(csvData))
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, want int, out any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d (want %d) for %s: %s", resp.StatusCode, want, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
