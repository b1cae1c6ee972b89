package main

import (
	"errors"
	"net/http"

	"github.com/techsphere/techsphere/internal/aiservice"
	"github.com/techsphere/techsphere/internal/common"
)

type explainRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

func (app *application) explainHandler(w http.ResponseWriter, r *http.Request) {
	var input explainRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	explanation, err := app.aiService.Explain(r.Context(), &aiservice.ExplainRequest{
		Text:    input.Text,
		Context: input.Context,
	})
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, aiservice.ErrGenerationFailed):
			app.writeErrorResponse(w, r, http.StatusBadGateway, "the explanation service is temporarily unavailable")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"explanation": explanation}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
