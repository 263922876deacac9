package server

import (
	"net/http"

	"github.com/thraizz/commander-table/internal/game"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func statusFor(err error) int {
	switch game.KindOf(err) {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindInvalidMetadata:
		return http.StatusBadRequest
	case game.KindInvalidState:
		return http.StatusConflict
	case game.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorBody(err error) ErrorResponse {
	kind := game.KindOf(err)
	if kind == 0 || kind == game.KindUpstream {
		// store details stay in the logs
		return ErrorResponse{Error: http.StatusText(statusFor(err)), Kind: kindName(kind)}
	}
	return ErrorResponse{Error: err.Error(), Kind: kind.String()}
}

func kindName(kind game.ErrorKind) string {
	if kind == 0 {
		return ""
	}
	return kind.String()
}
