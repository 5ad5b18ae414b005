package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/forgo/ludoteca/api/internal/model"
)

// SuccessResponse is the success envelope: {"success": true, "data": ...}
type SuccessResponse struct {
	Success    bool              `json:"success"`
	Data       interface{}       `json:"data"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes data inside the success envelope
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// WritePage writes one page of a collection with its pagination block
func WritePage[T any](w http.ResponseWriter, page *model.Page[T], params model.PageParams) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, SuccessResponse{
		Success:    true,
		Data:       items,
		Pagination: model.NewPagination(params, page.Total),
	})
}

// WriteList writes an unpaginated collection, never as null
func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteData(w, http.StatusOK, items)
}

// WriteError writes an error inside the failure envelope
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// decodeBody decodes a required JSON body, writing 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := DecodeJSON(r, v); err != nil {
		writeDecodeError(w, err)
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody for endpoints whose body may be empty
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := DecodeJSON(r, v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeDecodeError(w, err)
	return false
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteError(w, model.NewPayloadTooLargeError(tooLarge.Limit))
		return
	}
	WriteError(w, model.NewBadRequestError("invalid request body"))
}

// pageParams reads ?page= and ?page_size=
func pageParams(r *http.Request) (model.PageParams, *model.ProblemDetails) {
	var p model.PageParams
	var errs []model.FieldError

	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, model.FieldError{Field: "page", Message: "must be a positive integer"})
		}
		p.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, model.FieldError{Field: "page_size", Message: "must be a positive integer"})
		}
		p.PageSize = n
	}

	if len(errs) > 0 {
		return p, model.NewValidationError(errs)
	}
	return p.Normalize(), nil
}

// rentalStatusParam reads an optional ?status= rental filter
func rentalStatusParam(r *http.Request) (model.RentalStatus, *model.ProblemDetails) {
	status := model.RentalStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		return "", model.NewValidationError([]model.FieldError{
			{Field: "status", Message: "must be one of pending, active, returned, cancelled"},
		})
	}
	return status, nil
}

// instanceStatusParam reads an optional ?status= instance filter
func instanceStatusParam(r *http.Request) (model.InstanceStatus, *model.ProblemDetails) {
	status := model.InstanceStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		return "", model.NewValidationError([]model.FieldError{
			{Field: "status", Message: "must be one of available, rented, maintenance, retired"},
		})
	}
	return status, nil
}
