package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-quiz-client/internal/api"
	"github.com/stemsi/exstem-quiz-client/internal/response"
	"github.com/stemsi/exstem-quiz-client/internal/service"
)

// failService maps a QuizClient error onto the API envelope.
func failService(c *gin.Context, err error) {
	var statusErr *api.StatusError

	switch {
	case errors.Is(err, service.ErrNotLoaded):
		response.Fail(c, http.StatusConflict, response.ErrNotLoaded)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, service.ErrChoiceOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrChoiceOutOfRange)
	case errors.Is(err, api.ErrUnavailable):
		response.FailWithDetail(c, http.StatusBadGateway, response.ErrUpstreamUnavailable, err.Error())
	case errors.Is(err, api.ErrMalformedResponse):
		response.FailWithDetail(c, http.StatusBadGateway, response.ErrMalformedResponse, err.Error())
	case errors.As(err, &statusErr):
		response.FailWithDetail(c, http.StatusBadGateway, response.ErrUpstreamRejected, statusErr.Message)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
