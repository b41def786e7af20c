package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAnswerMap(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want AnswerMap
	}{
		{"empty input", "", AnswerMap{}},
		{"numbers", `{"1":0,"2":3}`, AnswerMap{"1": 0, "2": 3}},
		{"numeric strings", `{"q1":"2"," q2":" 1 "}`, AnswerMap{"q1": 2, " q2": 1}},
		{"corrupt json", `{"1":0`, AnswerMap{}},
		{"not an object", `[1,2,3]`, AnswerMap{}},
		{"bad entries dropped", `{"1":-1,"2":1.5,"3":"x","4":null,"5":true,"6":2}`, AnswerMap{"6": 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeAnswerMap([]byte(tc.raw)))
		})
	}
}

func TestAnswerMapEncodeRoundTrip(t *testing.T) {
	answers := AnswerMap{"7": 1, "abc": 0}

	data, err := answers.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"7":1,"abc":0}`, string(data))
	assert.Equal(t, answers, DecodeAnswerMap(data))

	data, err = AnswerMap(nil).Encode()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestIsSelected(t *testing.T) {
	answers := AnswerMap{"2": 1}

	assert.True(t, answers.IsSelected(NewQuestionID("2"), 1))
	assert.False(t, answers.IsSelected(NewQuestionID("2"), 0))
	assert.False(t, answers.IsSelected(NewQuestionID("3"), 1))

	stored := DecodeAnswerMap([]byte(`{"2":"1"}`))
	assert.True(t, stored.IsSelected(NewQuestionID("2"), 1))
	assert.False(t, stored.IsSelected(NewQuestionID("2"), 10))
}

func TestBuildSubmissionKeepsFetchOrderAndNullsUnanswered(t *testing.T) {
	var set QuestionSet
	require.NoError(t, json.Unmarshal([]byte(`{
		"session": "s1",
		"questions": [
			{"id": 1, "question": "a", "options": ["x", "y"]},
			{"id": 2, "question": "b", "options": ["x", "y"]},
			{"id": 3, "question": "c", "options": ["x", "y"]}
		]
	}`), &set))

	payload := BuildSubmission(set.Session, set.Questions, AnswerMap{"2": 1, "99": 0})

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"session": "s1",
		"answers": [
			{"id": 1, "choice": null},
			{"id": 2, "choice": 1},
			{"id": 3, "choice": null}
		]
	}`, string(data))
}

func TestBuildSubmissionWithNoQuestions(t *testing.T) {
	payload := BuildSubmission("s1", nil, AnswerMap{"1": 0})

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"session":"s1","answers":[]}`, string(data))
}
