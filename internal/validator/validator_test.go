package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/stemsi/exstem-quiz-client/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func jsonContext(body string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestBindSelectRequest(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{"valid", `{"question_id":"3","choice":0}`, nil},
		{"missing choice", `{"question_id":"3"}`, []string{"choice"}},
		{"negative choice", `{"question_id":"3","choice":-2}`, []string{"choice"}},
		{"missing id", `{"choice":1}`, []string{"question_id"}},
		{"syntax", `{"question_id":`, []string{"detail"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var req model.SelectRequest
			fields := Bind(jsonContext(tc.body), &req)

			if tc.wantFields == nil {
				assert.Nil(t, fields)
				return
			}
			for _, f := range tc.wantFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestBindFormSelectRequest(t *testing.T) {
	form := url.Values{"question_id": {"q-1"}, "choice": {"2"}}
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var req model.SelectRequest
	assert.Nil(t, BindForm(c, &req))
	assert.Equal(t, "q-1", req.QuestionID)
	if assert.NotNil(t, req.Choice) {
		assert.Equal(t, 2, *req.Choice)
	}
}

func TestTranslateErrorsUsesEnglishMessages(t *testing.T) {
	var req model.SelectRequest
	fields := Bind(jsonContext(`{"choice":1}`), &req)

	assert.Equal(t, "question_id is a required field", fields["question_id"])
}
