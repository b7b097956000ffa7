//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/konkoor/konkoor-backend/internal/service"
)

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	studentID      = 900001
	adminID        = 1
)

var (
	baseURL       string
	cfg           *config.Config
	studentToken  string
	adminToken    string
	examID        int64
	mathQuestion  int64
	physQuestion  int64
	attemptID     int64
	sessionHeader string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")
	cfg = config.Load()
	sessionHeader = cfg.SessionHeader

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if err := setup(); err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setup seeds a fresh open exam and signs tokens with the server's secret.
func setup() error {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer conn.Close(ctx)

	now := time.Now().UTC()
	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO exams (title, duration, start_time, end_time, is_published, randomize_options, passing_score)
			 VALUES ('E2E Exam', 30, $1, $2, TRUE, TRUE, 50) RETURNING id`,
			now.Add(-time.Hour), now.Add(time.Hour),
		).Scan(&examID); err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}

		insertQuestion := `INSERT INTO questions (subject, question_text, option_a, option_b, option_c, option_d,
		                                          correct_answer, points, negative_points)
		                   VALUES ($1, $2, 'A', 'B', 'C', 'D', $3, $4, $5) RETURNING id`
		if err := tx.QueryRow(ctx, insertQuestion, "math", "2 + 3", "b", 1, nil).Scan(&mathQuestion); err != nil {
			return fmt.Errorf("insert math question: %w", err)
		}
		if err := tx.QueryRow(ctx, insertQuestion, "physics", "unit of force", "c", 3, 0.25).Scan(&physQuestion); err != nil {
			return fmt.Errorf("insert physics question: %w", err)
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO exam_questions (exam_id, question_id, position) VALUES ($1, $2, 0), ($1, $3, 1)`,
			examID, mathQuestion, physQuestion)
		return err
	})
	if err != nil {
		return err
	}

	auth := service.NewAuthService(cfg)
	if studentToken, err = auth.IssueToken(studentID, service.RoleStudent, now); err != nil {
		return err
	}
	adminToken, err = auth.IssueToken(adminID, service.RoleAdmin, now)
	return err
}

func TestE2EFlow(t *testing.T) {
	var sessionToken string

	t.Run("ListAvailable", func(t *testing.T) {
		resp := mustDo(t, http.MethodGet, "/student/exams/available", nil, studentToken, "")
		var body struct {
			Data struct {
				Exams []model.Exam `json:"exams"`
			} `json:"data"`
		}
		expectStatus(t, resp, http.StatusOK, &body)

		found := false
		for _, e := range body.Data.Exams {
			if e.ID == examID {
				found = true
				if e.QuestionCount != 2 {
					t.Errorf("question_count = %d, want 2", e.QuestionCount)
				}
			}
		}
		if !found {
			t.Fatalf("exam %d not listed", examID)
		}
	})

	t.Run("Start", func(t *testing.T) {
		resp := mustDo(t, http.MethodPost, fmt.Sprintf("/student/exams/%d/start", examID), nil, studentToken, "")
		var body struct {
			Data model.StartExamResponse `json:"data"`
		}
		expectStatus(t, resp, http.StatusCreated, &body)
		attemptID = body.Data.AttemptID
		sessionToken = body.Data.SessionToken
		if sessionToken == "" || body.Data.RemainingTime <= 0 {
			t.Fatalf("unexpected start response: %+v", body.Data)
		}
	})

	t.Run("StartTwiceRejected", func(t *testing.T) {
		resp := mustDo(t, http.MethodPost, fmt.Sprintf("/student/exams/%d/start", examID), nil, studentToken, "")
		expectError(t, resp, http.StatusForbidden, "ATTEMPT_EXISTS")
	})

	t.Run("WrongSessionRejected", func(t *testing.T) {
		resp := mustDo(t, http.MethodGet, fmt.Sprintf("/student/attempts/%d/questions", attemptID), nil, studentToken, "other-device")
		expectError(t, resp, http.StatusForbidden, "INVALID_SESSION")
	})

	t.Run("Questions", func(t *testing.T) {
		resp := mustDo(t, http.MethodGet, fmt.Sprintf("/student/attempts/%d/questions", attemptID), nil, studentToken, sessionToken)
		var body struct {
			Data model.ExamPayload `json:"data"`
		}
		raw := expectStatus(t, resp, http.StatusOK, &body)
		if len(body.Data.Questions) != 2 {
			t.Fatalf("got %d questions, want 2", len(body.Data.Questions))
		}
		if bytes.Contains(raw, []byte("correct_answer")) {
			t.Fatal("payload leaks correct_answer")
		}
	})

	t.Run("Answer", func(t *testing.T) {
		answers := []model.SubmitAnswerRequest{
			{QuestionID: mathQuestion, SelectedAnswer: strPtr("b"), TimeSpent: intPtr(20)},
			{QuestionID: physQuestion, SelectedAnswer: strPtr("a"), TimeSpent: intPtr(35)},
		}
		for _, a := range answers {
			resp := mustDo(t, http.MethodPost, fmt.Sprintf("/student/attempts/%d/answers", attemptID), a, studentToken, sessionToken)
			expectStatus(t, resp, http.StatusOK, nil)
		}

		resp := mustDo(t, http.MethodPost, fmt.Sprintf("/student/attempts/%d/answers", attemptID),
			map[string]any{"question_id": mathQuestion, "selected_answer": "e"}, studentToken, sessionToken)
		expectError(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("BookmarkAndActivity", func(t *testing.T) {
		resp := mustDo(t, http.MethodPost, fmt.Sprintf("/student/attempts/%d/bookmark", attemptID),
			model.BookmarkRequest{QuestionID: physQuestion}, studentToken, sessionToken)
		var body struct {
			Data struct {
				IsBookmarked bool `json:"is_bookmarked"`
			} `json:"data"`
		}
		expectStatus(t, resp, http.StatusOK, &body)
		if !body.Data.IsBookmarked {
			t.Error("bookmark not set")
		}

		resp = mustDo(t, http.MethodPost, fmt.Sprintf("/student/attempts/%d/activity", attemptID),
			model.LogActivityRequest{ActivityType: "tab_switch"}, studentToken, sessionToken)
		expectStatus(t, resp, http.StatusOK, nil)
	})

	t.Run("Submit", func(t *testing.T) {
		resp := mustDo(t, http.MethodPost, fmt.Sprintf("/student/attempts/%d/submit", attemptID), nil, studentToken, sessionToken)
		var body struct {
			Data model.SubmitResult `json:"data"`
		}
		expectStatus(t, resp, http.StatusOK, &body)
		if body.Data.TotalScore != 0.75 || body.Data.Percentage != 18.75 {
			t.Fatalf("got score %.2f (%.2f%%), want 0.75 (18.75%%)", body.Data.TotalScore, body.Data.Percentage)
		}

		resp = mustDo(t, http.MethodPost, fmt.Sprintf("/student/attempts/%d/submit", attemptID), nil, studentToken, sessionToken)
		expectError(t, resp, http.StatusConflict, "ATTEMPT_FINALIZED")
	})

	t.Run("Results", func(t *testing.T) {
		resp := mustDo(t, http.MethodGet, fmt.Sprintf("/student/attempts/%d/results", attemptID), nil, studentToken, "")
		var body struct {
			Data model.AttemptResult `json:"data"`
		}
		expectStatus(t, resp, http.StatusOK, &body)
		if body.Data.Passed {
			t.Error("18.75% should not pass a 50% exam")
		}
		if body.Data.Stats.Correct != 1 || body.Data.Stats.Wrong != 1 {
			t.Errorf("unexpected stats %+v", body.Data.Stats)
		}
	})

	t.Run("AdminAnalytics", func(t *testing.T) {
		resp := mustDo(t, http.MethodGet, fmt.Sprintf("/admin/exams/%d/analytics", examID), nil, adminToken, "")
		var body struct {
			Data model.ExamAnalytics `json:"data"`
		}
		expectStatus(t, resp, http.StatusOK, &body)
		if body.Data.TotalParticipants != 1 {
			t.Errorf("participants = %d, want 1", body.Data.TotalParticipants)
		}

		resp = mustDo(t, http.MethodGet, fmt.Sprintf("/admin/exams/%d/analytics", examID), nil, studentToken, "")
		expectError(t, resp, http.StatusForbidden, "STAFF_ACCESS_ONLY")
	})

	t.Run("AdminActivity", func(t *testing.T) {
		resp := mustDo(t, http.MethodGet, fmt.Sprintf("/admin/attempts/%d/activity", attemptID), nil, adminToken, "")
		var body struct {
			Data model.ActivityReview `json:"data"`
		}
		expectStatus(t, resp, http.StatusOK, &body)
		if body.Data.TabSwitchesCount != 1 {
			t.Errorf("tab switches = %d, want 1", body.Data.TabSwitchesCount)
		}
	})
}

// Helpers

func mustDo(t *testing.T, method, path string, body interface{}, token, session string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if session != "" {
		req.Header.Set(sessionHeader, session)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// expectStatus fails unless resp has the wanted status, then decodes the body into v.
func expectStatus(t *testing.T, resp *http.Response, want int, v interface{}) []byte {
	t.Helper()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("status %d: %s", resp.StatusCode, raw)
	}
	if v != nil {
		if err := json.Unmarshal(raw, v); err != nil {
			t.Fatalf("json decode: %v", err)
		}
	}
	return raw
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)
	if resp.StatusCode != status || body.Error.Code != code {
		t.Fatalf("got %d %s, want %d %s: %s", resp.StatusCode, body.Error.Code, status, code, raw)
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
