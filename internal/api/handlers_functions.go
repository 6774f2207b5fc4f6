package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/onchain-formulas/internal/functions"
	"github.com/onchain-formulas/internal/logging"
)

// CallRequest is the body of a function call
type CallRequest struct {
	Args []any `json:"args"`
}

// CallResponse carries either a result or the function's error object
type CallResponse struct {
	Result any `json:"result,omitempty"`
	Error  any `json:"error,omitempty"`
}

// ListResponse is the function catalogue
type ListResponse struct {
	Functions []functions.Metadata `json:"functions"`
}

func (s *Server) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ListResponse{Functions: s.functions.List()})
}

func (s *Server) handleDescribeFunction(w http.ResponseWriter, r *http.Request) {
	name := strings.ToUpper(mux.Vars(r)["name"])
	for _, md := range s.functions.List() {
		if md.Name == name {
			respondJSON(w, http.StatusOK, md)
			return
		}
	}
	respondError(w, http.StatusNotFound, ErrCodeNotFound, "Unknown function", map[string]interface{}{"name": name})
}

// handleCallFunction runs one function. Function-level failures are part of the payload and
// answer 200, only a malformed request is a 400.
func (s *Server) handleCallFunction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req CallRequest
	if r.ContentLength != 0 {
		if err := parseJSONBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", map[string]interface{}{"error": err.Error()})
			return
		}
	}

	ctx := logging.WithLogger(r.Context(), s.logger)
	res := s.functions.Call(ctx, name, req.Args)

	if res.IsError() {
		respondJSON(w, http.StatusOK, CallResponse{Error: res.Err})
		return
	}
	respondJSON(w, http.StatusOK, CallResponse{Result: res.Payload()})
}
