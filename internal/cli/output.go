package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Output форматирует результаты команд.
//
// Данные идут в stdout (таблица или JSON), служебные сообщения —
// в stderr, чтобы не ломать пайплайны вида `tracker ... --json | jq`.
type Output struct {
	jsonMode bool
	out      io.Writer
	msg      io.Writer
}

// NewOutput создаёт Output поверх stdout/stderr.
// Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return newOutput(jsonMode, os.Stdout, os.Stderr)
}

func newOutput(jsonMode bool, out, msg io.Writer) *Output {
	return &Output{jsonMode: jsonMode, out: out, msg: msg}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные таблицей с подчёркнутыми заголовками.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	underline := make([]string, len(headers))
	for i, h := range headers {
		underline[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(underline, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(o.msg, "Error: encode json: "+err.Error())
	}
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.msg, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.msg, "Error: "+msg)
}
