package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/FrameCheck/internal/errs"
	"github.com/koustreak/FrameCheck/internal/schema"
	"github.com/koustreak/FrameCheck/internal/table/memtable"
)

type schemaPayload struct {
	Columns []schemaColumnPayload `json:"columns"`
}

type schemaColumnPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type tablePayload struct {
	Columns []columnPayload `json:"columns"`
}

type columnPayload struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Values []any  `json:"values"`
}

type validateRequest struct {
	Schema schemaPayload `json:"schema"`
	Table  tablePayload  `json:"table"`
}

type coerceRequest struct {
	Schema schemaPayload `json:"schema"`
	Table  tablePayload  `json:"table"`

	// Cast allows lossless type widening during coercion. Without it any
	// type difference is reported as a discrepancy.
	Cast bool `json:"cast"`
}

type outcomeResponse struct {
	Conforming    bool                 `json:"conforming"`
	Discrepancies []schema.Discrepancy `json:"discrepancies,omitempty"`
	Table         *tablePayload        `json:"table,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	desc, tbl, err := decodeRequest(req.Schema, req.Table)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := schema.Validate(r.Context(), tbl, desc)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcomeResponse{
		Conforming:    outcome.Conforming(),
		Discrepancies: outcome.Discrepancies(),
	})
}

func (s *Server) handleCoerce(w http.ResponseWriter, r *http.Request) {
	var req coerceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	desc, tbl, err := decodeRequest(req.Schema, req.Table)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := schema.Coerce(r.Context(), tbl, desc, req.Cast)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := outcomeResponse{
		Conforming:    outcome.Conforming(),
		Discrepancies: outcome.Discrepancies(),
	}
	if outcome.Conforming() {
		out, ok := outcome.Table().(*memtable.Table)
		if !ok {
			writeError(w, errs.New(errs.ErrKindInvalidInput, "coercion produced a non-materialized table"))
			return
		}
		payload := encodeTable(out)
		resp.Table = &payload
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeRequest turns the inline schema and table payloads into the domain
// types the validator works on.
func decodeRequest(sp schemaPayload, tp tablePayload) (*schema.Descriptor, *memtable.Table, error) {
	desc, err := decodeSchema(sp)
	if err != nil {
		return nil, nil, err
	}
	tbl, err := decodeTable(tp)
	if err != nil {
		return nil, nil, err
	}
	return desc, tbl, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	// Integer values must survive the trip through any, so numbers stay
	// json.Number until the column type is known.
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to decode request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsInvalidInput(err), errs.IsDuplicateColumn(err),
		errs.IsColumnNotFound(err), errs.IsUnsupportedType(err):
		status = http.StatusBadRequest
	case errs.IsTimeout(err):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
