package novadbwire

import (
	"encoding/json"

	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/sql/executor"
)

// ExecuteRequest is a single SQL command request.
type ExecuteRequest struct {
	ID  uint64 `json:"id"`
	SQL string `json:"sql"`
}

// ExecuteResponse is the response for a request ID. Kind carries the engine
// error kind name (for example "ParseError") so remote callers can still
// tell failures apart.
type ExecuteResponse struct {
	ID     uint64           `json:"id"`
	Result *executor.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Kind   string           `json:"kind,omitempty"`
}

func errorResponse(id uint64, err error) ExecuteResponse {
	resp := ExecuteResponse{ID: id, Error: err.Error()}
	if k := dberr.KindOf(err); k != 0 {
		resp.Kind = k.String()
	}
	return resp
}

// RemoteError is an engine error that crossed the wire. It matches the
// dberr sentinels of its kind under errors.Is.
type RemoteError struct {
	Kind dberr.Kind
	Msg  string
}

func (e *RemoteError) Error() string { return e.Msg }

func (e *RemoteError) Is(target error) bool {
	t, ok := target.(*dberr.Error)
	return ok && e.Kind != 0 && t.Kind == e.Kind
}

// Err rebuilds the error carried by resp, or nil.
func (resp *ExecuteResponse) Err() error {
	if resp.Error == "" {
		return nil
	}
	return &RemoteError{Kind: dberr.ParseKind(resp.Kind), Msg: resp.Error}
}

// NormalizeRows turns the json.Number cells of a decoded result back into
// int64 or float64.
func NormalizeRows(res *executor.Result) {
	if res == nil {
		return
	}
	if res.Columns != nil && res.Rows == nil {
		res.Rows = [][]any{}
	}
	for _, row := range res.Rows {
		for i, cell := range row {
			n, ok := cell.(json.Number)
			if !ok {
				continue
			}
			if v, err := n.Int64(); err == nil {
				row[i] = v
			} else if f, err := n.Float64(); err == nil {
				row[i] = f
			}
		}
	}
}
