package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/model"
	"github.com/stretchr/testify/require"
)

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBindSubmitAnswer(t *testing.T) {
	Setup()

	var ok model.SubmitAnswerRequest
	require.Nil(t, bindBody(t, `{"question_id": 3, "selected_answer": "b", "time_spent": 12}`, &ok))
	require.Equal(t, "b", *ok.SelectedAnswer)

	var cleared model.SubmitAnswerRequest
	require.Nil(t, bindBody(t, `{"question_id": 3, "selected_answer": null}`, &cleared))
	require.Nil(t, cleared.SelectedAnswer)

	var bad model.SubmitAnswerRequest
	fields := bindBody(t, `{"question_id": 3, "selected_answer": "e"}`, &bad)
	require.Contains(t, fields, "selected_answer")

	var missing model.SubmitAnswerRequest
	fields = bindBody(t, `{"selected_answer": "a"}`, &missing)
	require.Contains(t, fields, "question_id")

	var negative model.SubmitAnswerRequest
	fields = bindBody(t, `{"question_id": 3, "time_spent": -4}`, &negative)
	require.Contains(t, fields, "time_spent")
}

func TestBindLogActivity(t *testing.T) {
	Setup()

	var bad model.LogActivityRequest
	fields := bindBody(t, `{"activity_type": "answer_change"}`, &bad)
	require.Contains(t, fields, "activity_type")

	var malformed model.LogActivityRequest
	fields = bindBody(t, `{"activity_type":`, &malformed)
	require.Contains(t, fields, "detail")
}
