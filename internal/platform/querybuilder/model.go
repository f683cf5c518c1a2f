package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModels builds batched multi-row inserts from db-tagged structs.
// Each statement stays under MaxParams.
func InsertModels[T any](table string, models []T) ([]string, [][]any, error) {
	if len(models) == 0 {
		return nil, nil, nil
	}
	cols, _, err := columnsAndValuesFromModel(models[0])
	if err != nil {
		return nil, nil, err
	}
	perStatement := MaxParams / len(cols)

	var queries []string
	var argSets [][]any
	for start := 0; start < len(models); start += perStatement {
		end := min(start+perStatement, len(models))
		builder := InsertInto(table).Columns(cols...)
		for _, model := range models[start:end] {
			_, vals, err := columnsAndValuesFromModel(model)
			if err != nil {
				return nil, nil, err
			}
			builder.Values(vals...)
		}
		query, args, err := builder.ToSQL()
		if err != nil {
			return nil, nil, err
		}
		queries = append(queries, query)
		argSets = append(argSets, args)
	}
	return queries, argSets, nil
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		tag := strings.TrimSpace(field.Tag.Get("db"))
		if tag == "" || tag == "-" {
			continue
		}
		col := strings.TrimSpace(strings.Split(tag, ",")[0])
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
