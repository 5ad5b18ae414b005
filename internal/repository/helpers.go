package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

var errUnexpectedFormat = errors.New("unexpected result format")

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a
// "table:id" string.
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		// {"tb": "user", "id": "xxx"} format
		tb, _ := v["tb"].(string)
		if tb == "" {
			tb, _ = v["Table"].(string)
		}
		idPart := v["id"]
		if idPart == nil {
			idPart = v["ID"]
		}
		if tb != "" && idPart != nil {
			return fmt.Sprintf("%s:%v", tb, idPart)
		}
	}
	return fmt.Sprintf("%v", id)
}

// normalize rewrites driver-specific values into JSON-friendly ones so a
// record can be decoded into a model struct: record IDs become "table:id"
// strings and SurrealDB datetimes become time.Time.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case models.RecordID, *models.RecordID:
		return convertSurrealID(t)
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time
	case map[string]interface{}:
		if _, ok := t["tb"]; ok && len(t) == 2 {
			if _, ok := t["id"]; ok {
				return convertSurrealID(t)
			}
		}
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

// unwrapRecord strips the {status, result} envelope and array wrapper from a
// QueryOne result.
func unwrapRecord(result interface{}) (map[string]interface{}, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	if resp, ok := result.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok {
				if len(resultData) == 0 {
					return nil, database.ErrNotFound
				}
				result = resultData[0]
			}
		}
	}

	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		result = arr[0]
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errUnexpectedFormat
	}
	return data, nil
}

// decodeRecord converts a single raw record into T
func decodeRecord[T any](result interface{}) (*T, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}
	return decodeMap[T](data)
}

func decodeMap[T any](data map[string]interface{}) (*T, error) {
	jsonBytes, err := json.Marshal(normalize(data))
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// statementResult returns the records produced by statement idx of a
// multi-statement query.
func statementResult(results []interface{}, idx int) []interface{} {
	if idx >= len(results) {
		return nil
	}
	if resp, ok := results[idx].(map[string]interface{}); ok {
		if arr, ok := resp["result"].([]interface{}); ok {
			return arr
		}
		if resp["result"] != nil {
			return []interface{}{resp["result"]}
		}
		return nil
	}
	return nil
}

// decodeRecords converts the records of statement idx into []*T
func decodeRecords[T any](results []interface{}, idx int) ([]*T, error) {
	raw := statementResult(results, idx)
	out := make([]*T, 0, len(raw))
	for _, item := range raw {
		data, ok := item.(map[string]interface{})
		if !ok {
			return nil, errUnexpectedFormat
		}
		rec, err := decodeMap[T](data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// extractCount reads {count: n} from statement idx (a GROUP ALL count query)
func extractCount(results []interface{}, idx int) int {
	raw := statementResult(results, idx)
	if len(raw) == 0 {
		return 0
	}
	if data, ok := raw[0].(map[string]interface{}); ok {
		return extractCountValue(data["count"])
	}
	return 0
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	case uint32:
		return int(c)
	case int32:
		return int(c)
	}
	return 0
}

// createdID returns the id of the record created by the first statement
func createdID(results []interface{}) (string, error) {
	raw := statementResult(results, 0)
	if len(raw) == 0 {
		return "", errors.New("no result returned")
	}
	data, ok := raw[0].(map[string]interface{})
	if !ok {
		return "", errUnexpectedFormat
	}
	return convertSurrealID(data["id"]), nil
}

// ptrToNone converts an optional value for the IF $x IS NOT NULL pattern
func ptrToNone[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// timeVar formats a time for a <datetime> cast
func timeVar(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func pageVars(p model.PageParams, vars map[string]interface{}) map[string]interface{} {
	n := p.Normalize()
	vars["limit"] = n.PageSize
	vars["start"] = p.Offset()
	return vars
}

// openRentalsExist is a guard condition that holds while a pending or active
// rental references the record in $param through field.
func openRentalsExist(field, param string) string {
	return fmt.Sprintf(
		`count(SELECT VALUE id FROM rental WHERE %s = type::record($%s) AND status IN ['pending', 'active']) > 0`,
		field, param)
}

// newRecordKey returns a random record key that is a plain SurrealQL
// identifier, so "table:key" round-trips through type::record.
func newRecordKey(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
