package csvread

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"codigo,descricao,valor", ','},
		{"codigo;descricao;valor;tipo;especialidade", ';'},
		{"codigo\tdescricao\tvalor", '\t'},
		{`"codigo;x",descricao,valor`, ','},
		{"codigo", ','},
		{"", ','},
		{"a;b,c", ','},
	}
	for _, tt := range tests {
		if got := SniffDelimiter([]byte(tt.line)); got != tt.want {
			t.Errorf("SniffDelimiter(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestMapColumns(t *testing.T) {
	cols := MapColumns([]string{"Código SIGTAP", "Descrição", "Preço", "Tipo", "Especialidade"})
	want := map[Field]int{
		FieldCode:        0,
		FieldDescription: 1,
		FieldPrice:       2,
		FieldClass:       3,
		FieldSpecialty:   4,
	}
	for f, idx := range want {
		if got := cols.Index(f); got != idx {
			t.Errorf("Index(%s) = %d, want %d", f, got, idx)
		}
	}
	if err := cols.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestMapColumns_FirstHeaderWins(t *testing.T) {
	cols := MapColumns([]string{"sigtap", "descricao", "codigo interno", "valor"})
	if got := cols.Index(FieldCode); got != 0 {
		t.Errorf("code column = %d, want 0", got)
	}
	if len(cols.Ignored) != 1 {
		t.Fatalf("expected 1 ignored column, got %d", len(cols.Ignored))
	}
	if cols.Ignored[0].Index != 2 || cols.Ignored[0].Field != FieldCode {
		t.Errorf("unexpected ignored column: %+v", cols.Ignored[0])
	}
}

func TestMapColumns_RuleOrderWithinCell(t *testing.T) {
	// "codigo do preco" names both code and price; code is tried first.
	cols := MapColumns([]string{"codigo do preco", "descricao"})
	if cols.Index(FieldCode) != 0 {
		t.Errorf("expected code to own column 0")
	}
	if cols.Has(FieldPrice) {
		t.Errorf("price should be unmapped")
	}
}

func TestColumnMap_ValidateMissing(t *testing.T) {
	cols := MapColumns([]string{"codigo", "valor"})
	err := cols.Validate()
	if !errors.Is(err, ErrRequiredColumns) {
		t.Fatalf("expected ErrRequiredColumns, got %v", err)
	}
	if !strings.Contains(err.Error(), "description") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestOpen_SemicolonWithBOM(t *testing.T) {
	in := "\ufeffcodigo;descricao;valor;tipo;especialidade\n" +
		"0101;Consulta;150,00;ELETIVA;Clinica Geral\n" +
		"0102;Exame;abc;URGENCIA;Cardiologia\n"
	r, err := Open(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Comma() != ';' {
		t.Errorf("Comma = %q, want ';'", r.Comma())
	}
	if r.Columns().Index(FieldCode) != 0 {
		t.Errorf("BOM should not hide the code header")
	}

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Row != 2 {
		t.Errorf("first data row = %d, want 2", rec.Row)
	}
	price, ok := rec.Value(r.Columns(), FieldPrice)
	if !ok || price != "150,00" {
		t.Errorf("price = %q (ok=%v), want 150,00", price, ok)
	}

	rec, err = r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Row != 3 {
		t.Errorf("second data row = %d, want 3", rec.Row)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if r.Rows() != 2 {
		t.Errorf("Rows = %d, want 2", r.Rows())
	}
}

func TestRecordValue(t *testing.T) {
	cols := MapColumns([]string{"codigo", "descricao", "especialidade"})
	rec := Record{Row: 2, Fields: []string{"0101", "Consulta"}}

	if v, ok := rec.Value(cols, FieldCode); !ok || v != "0101" {
		t.Errorf("code = %q ok=%v", v, ok)
	}
	if v, ok := rec.Value(cols, FieldPrice); !ok || v != "" {
		t.Errorf("unmapped price should be empty and ok, got %q ok=%v", v, ok)
	}
	if _, ok := rec.Value(cols, FieldSpecialty); ok {
		t.Errorf("mapped specialty beyond row end should not be ok")
	}
}

func TestOpen_Empty(t *testing.T) {
	if _, err := Open(strings.NewReader("")); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestNext_SkipsBlankLines(t *testing.T) {
	in := "codigo,descricao\n\n0101,Consulta\n\n0102,Exame\n"
	r, err := Open(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	var rows []int
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		rows = append(rows, rec.Row)
	}
	if len(rows) != 2 || rows[0] != 2 || rows[1] != 3 {
		t.Errorf("rows = %v, want [2 3]", rows)
	}
}
