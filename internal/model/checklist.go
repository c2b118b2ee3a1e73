package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ChecklistAnswer is one row of a submitted completion checklist. Item is
// the question position, 1..7.
type ChecklistAnswer struct {
	Item   int    `json:"item"`
	Estado string `json:"estado"`
	Obs    string `json:"obs"`
}

// UnmarshalJSON accepts item as a number or a numeric string. Any other
// item is read as 0 so the answer falls back to its position.
func (a *ChecklistAnswer) UnmarshalJSON(b []byte) error {
	type plain ChecklistAnswer
	aux := struct {
		*plain
		Item json.RawMessage `json:"item"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	n, err := looseInt(aux.Item)
	if err != nil {
		n = 0
	}
	a.Item = n
	return nil
}

type ChecklistSupervisor struct {
	Nombre string `json:"nombre"`
	Fecha  string `json:"fecha"`
	Firma  string `json:"firma"`
}

// Signed reports whether a supervisor already put a name or signature on
// the block.
func (s ChecklistSupervisor) Signed() bool {
	return strings.TrimSpace(s.Nombre) != "" || strings.TrimSpace(s.Firma) != ""
}

// UnmarshalJSON accepts firma as a string or as the numeric user code.
func (s *ChecklistSupervisor) UnmarshalJSON(b []byte) error {
	var aux struct {
		Nombre json.RawMessage `json:"nombre"`
		Fecha  json.RawMessage `json:"fecha"`
		Firma  json.RawMessage `json:"firma"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if s.Nombre, err = looseString(aux.Nombre); err != nil {
		return fmt.Errorf("supervisor.nombre: %w", err)
	}
	if s.Fecha, err = looseString(aux.Fecha); err != nil {
		return fmt.Errorf("supervisor.fecha: %w", err)
	}
	if s.Firma, err = looseString(aux.Firma); err != nil {
		return fmt.Errorf("supervisor.firma: %w", err)
	}
	return nil
}

// ChecklistDocument is the body stored by PATCH /ordenes/{code}/checklist
// and returned later under checkListDict.
type ChecklistDocument struct {
	TaskID             int                 `json:"task_id"`
	DetalleMant        string              `json:"detalle_mant"`
	OrderID            int                 `json:"order_id"`
	MantenedorCode     int                 `json:"mantenedor_code"`
	MantenedorName     string              `json:"mantenedor_name"`
	Fecha              string              `json:"fecha"`
	Answers            []ChecklistAnswer   `json:"answers"`
	OtrasObservaciones string              `json:"otras_observaciones"`
	Supervisor         ChecklistSupervisor `json:"supervisor"`
}

// UnmarshalJSON tolerates ids sent as numbers, numeric strings, "" or null.
func (d *ChecklistDocument) UnmarshalJSON(b []byte) error {
	type plain ChecklistDocument
	aux := struct {
		*plain
		TaskID         json.RawMessage `json:"task_id"`
		OrderID        json.RawMessage `json:"order_id"`
		MantenedorCode json.RawMessage `json:"mantenedor_code"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		raw  json.RawMessage
		dst  *int
	}{
		{"task_id", aux.TaskID, &d.TaskID},
		{"order_id", aux.OrderID, &d.OrderID},
		{"mantenedor_code", aux.MantenedorCode, &d.MantenedorCode},
	} {
		n, err := looseInt(f.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = n
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// looseInt reads 55, 55.0, "55", "" or null.
func looseInt(raw json.RawMessage) (int, error) {
	if isNull(raw) {
		return 0, nil
	}
	raw = bytes.TrimSpace(raw)
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
	} else {
		s = string(raw)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %s", raw)
	}
	return int(f), nil
}

// looseString reads a string, a number (kept as written) or null.
func looseString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("want string or number, got %s", raw)
	}
	return n.String(), nil
}
