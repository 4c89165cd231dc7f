package importer_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amecontrol/sigtapload/internal/catalog"
	"github.com/amecontrol/sigtapload/internal/importer"
	"github.com/amecontrol/sigtapload/internal/model"
)

// memStore is an in-memory Store keyed by code.
type memStore struct {
	byCode map[string]*model.ProcedureCode
	nextID int64

	// failCode makes any call touching that code return failErr.
	failCode string
	failErr  error
}

func newMemStore() *memStore {
	return &memStore{byCode: make(map[string]*model.ProcedureCode)}
}

func (s *memStore) FindByCode(_ context.Context, code string) (*model.ProcedureCode, error) {
	if s.failCode != "" && code == s.failCode {
		return nil, s.failErr
	}
	p, ok := s.byCode[code]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, f model.ProcedureFields, createdBy model.Identity) (*model.ProcedureCode, error) {
	if _, ok := s.byCode[f.Code]; ok {
		return nil, fmt.Errorf("insert %q: %w", f.Code, catalog.ErrConflict)
	}
	s.nextID++
	p := &model.ProcedureCode{ID: s.nextID, Code: f.Code, Active: true}
	p.Apply(f)
	if createdBy != "" {
		by := createdBy
		p.CreatedBy = &by
	}
	s.byCode[f.Code] = p
	return p, nil
}

func (s *memStore) Update(_ context.Context, rec *model.ProcedureCode, f model.ProcedureFields) error {
	stored, ok := s.byCode[rec.Code]
	if !ok {
		return fmt.Errorf("update %q: missing", rec.Code)
	}
	stored.Apply(f)
	rec.Apply(f)
	return nil
}

// snapshot returns the import-visible state of the store.
func (s *memStore) snapshot() map[string]model.ProcedureFields {
	out := make(map[string]model.ProcedureFields, len(s.byCode))
	for code, p := range s.byCode {
		f := p.Fields()
		f.Price = decimal.RequireFromString(f.Price.StringFixed(2))
		out[code] = f
	}
	return out
}

func runImport(t *testing.T, store importer.Store, csv string, opts importer.Options) *model.ImportReport {
	t.Helper()
	rep, err := importer.Import(context.Background(), store, strings.NewReader(csv), opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return rep
}

func assertReport(t *testing.T, rep *model.ImportReport, created, updated int, failed []int) {
	t.Helper()
	if rep.Created != created || rep.Updated != updated {
		t.Errorf("created/updated = %d/%d, want %d/%d", rep.Created, rep.Updated, created, updated)
	}
	if failed == nil {
		failed = []int{}
	}
	if !reflect.DeepEqual(rep.FailedRows, failed) {
		t.Errorf("failed_rows = %v, want %v", rep.FailedRows, failed)
	}
}

const scenarioCSV = "codigo;descricao;valor;tipo;especialidade\n" +
	"0101;Consulta;150,00;ELETIVA;Clinica Geral\n" +
	"0102;Exame;abc;URGENCIA;Cardiologia\n"

func TestImport_Scenario(t *testing.T) {
	store := newMemStore()
	rep := runImport(t, store, scenarioCSV, importer.Options{SubmittedBy: "admin"})

	assertReport(t, rep, 1, 0, []int{3})
	if len(rep.Failures) != 1 || rep.Failures[0].Reason != model.ReasonInvalidPrice {
		t.Errorf("failures = %+v, want one invalid_price", rep.Failures)
	}

	p := store.byCode["0101"]
	if p == nil {
		t.Fatal("expected record for 0101")
	}
	if !p.Price.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("price = %s, want 150.00", p.Price)
	}
	if p.ProcedureClass != model.ClassElective {
		t.Errorf("class = %s, want %s", p.ProcedureClass, model.ClassElective)
	}
	if p.Specialty != "Clinica Geral" || p.Description != "Consulta" {
		t.Errorf("unexpected record %+v", p)
	}
	if !p.Active {
		t.Error("new records must be active")
	}
	if p.CreatedBy == nil || *p.CreatedBy != "admin" {
		t.Errorf("created_by = %v, want admin", p.CreatedBy)
	}
	if _, ok := store.byCode["0102"]; ok {
		t.Error("0102 must not be stored")
	}
}

func TestImport_OverwriteUpdates(t *testing.T) {
	store := newMemStore()
	runImport(t, store, scenarioCSV, importer.Options{})

	next := "codigo;descricao;valor;tipo;especialidade\n" +
		"0101;Consulta Retorno;175,50;URGÊNCIA;Clinica Medica\n"
	rep := runImport(t, store, next, importer.Options{Overwrite: true, SubmittedBy: "other"})
	assertReport(t, rep, 0, 1, nil)

	p := store.byCode["0101"]
	want := model.ProcedureFields{
		Code:           "0101",
		Description:    "Consulta Retorno",
		Price:          decimal.RequireFromString("175.50"),
		ProcedureClass: model.ClassUrgent,
		Specialty:      "Clinica Medica",
	}
	if !p.Fields().Equal(want) {
		t.Errorf("fields = %+v, want %+v", p.Fields(), want)
	}
	if p.CreatedBy != nil {
		t.Errorf("update must not set provenance, got %q", *p.CreatedBy)
	}
}

func TestImport_SameFileOverwriteTwice(t *testing.T) {
	csv := "codigo,descricao,valor,tipo\n" +
		"1,A,10,ELETIVA\n" +
		"2,B,20.5,AMBULATORIAL\n" +
		"3,,30,ELETIVA\n"

	store := newMemStore()
	first := runImport(t, store, csv, importer.Options{Overwrite: true})
	assertReport(t, first, 2, 0, []int{4})
	after1 := store.snapshot()

	second := runImport(t, store, csv, importer.Options{Overwrite: true})
	assertReport(t, second, 0, 2, []int{4})
	if !reflect.DeepEqual(after1, store.snapshot()) {
		t.Errorf("state changed on re-import:\nfirst  %+v\nsecond %+v", after1, store.snapshot())
	}
}

func TestImport_NoOverwriteSkipsSilently(t *testing.T) {
	store := newMemStore()
	runImport(t, store, scenarioCSV, importer.Options{})
	before := store.snapshot()

	changed := "codigo;descricao;valor\n0101;Outra;999\n"
	rep := runImport(t, store, changed, importer.Options{Overwrite: false})
	assertReport(t, rep, 0, 0, nil)
	if !reflect.DeepEqual(before, store.snapshot()) {
		t.Error("existing record modified without overwrite")
	}
}

func TestImport_RowFailures(t *testing.T) {
	csv := "codigo,descricao,valor,tipo,especialidade\n" +
		" ,Sem codigo,10,,\n" + // 2
		"A1,  ,10,,\n" + // 3
		"A2,Sem preco,,,\n" + // 4
		"A3,Preco ruim,1.000,50,,\n" + // 5: extra field shifts nothing, price "1.000" is valid
		"A4,Curta\n" + // 6
		"A5,Ok,12,ELETIVA,Geral\n" // 7

	store := newMemStore()
	rep := runImport(t, store, csv, importer.Options{})

	assertReport(t, rep, 2, 0, []int{2, 3, 4, 6})
	wantReasons := []string{
		model.ReasonMissingCode,
		model.ReasonMissingDescription,
		model.ReasonInvalidPrice,
		model.ReasonShortRow,
	}
	for i, f := range rep.Failures {
		if f.Reason != wantReasons[i] {
			t.Errorf("row %d reason = %q, want %q", f.Row, f.Reason, wantReasons[i])
		}
	}
	if p := store.byCode["A3"]; p == nil || !p.Price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("A3 price = %v, want 1", p)
	}
}

// textStore rejects text Postgres cannot store, the way the server does.
type textStore struct {
	*memStore
}

func (s textStore) Create(ctx context.Context, f model.ProcedureFields, by model.Identity) (*model.ProcedureCode, error) {
	for _, v := range []string{f.Code, f.Description, f.Specialty} {
		if strings.ContainsRune(v, 0) || !utf8.ValidString(v) {
			return nil, errors.New(`ERROR: invalid byte sequence for encoding "UTF8" (SQLSTATE 22021)`)
		}
	}
	return s.memStore.Create(ctx, f, by)
}

func TestImport_UnstorableTextFailsRow(t *testing.T) {
	csv := "codigo,descricao,valor,tipo,especialidade\n" +
		"R1,ok,1,,\n" + // 2
		"R2,bad\x00desc,2,,\n" + // 3
		"R3,later,3,,\n" + // 4
		"R4,\xff\xfe,4,,\n" + // 5
		"R5,Ok,5,,Geral\x00\n" // 6

	store := textStore{newMemStore()}
	rep := runImport(t, store, csv, importer.Options{})

	assertReport(t, rep, 2, 0, []int{3, 5, 6})
	for _, f := range rep.Failures {
		if f.Reason != model.ReasonInvalidText {
			t.Errorf("row %d reason = %q, want %q", f.Row, f.Reason, model.ReasonInvalidText)
		}
	}
	for _, code := range []string{"R1", "R3"} {
		if store.byCode[code] == nil {
			t.Errorf("%s must be stored", code)
		}
	}
	if len(store.byCode) != 2 {
		t.Errorf("stored %d codes, want 2", len(store.byCode))
	}
}

func TestImport_CommaAndPeriodPricesAgree(t *testing.T) {
	comma := newMemStore()
	runImport(t, comma, "codigo;descricao;valor\nX;Y;150,50\n", importer.Options{})
	period := newMemStore()
	runImport(t, period, "codigo,descricao,valor\nX,Y,150.50\n", importer.Options{})

	if !comma.byCode["X"].Price.Equal(period.byCode["X"].Price) {
		t.Errorf("comma %s != period %s", comma.byCode["X"].Price, period.byCode["X"].Price)
	}
}

func TestImport_ClassMapping(t *testing.T) {
	csv := "codigo,descricao,valor,tipo\n" +
		"1,a,1,eletiva\n" +
		"2,b,1,Urgência\n" +
		"3,c,1,EMERGENCIA\n" +
		"4,d,1,ambulatorial\n" +
		"5,e,1,Cirurgica\n" +
		"6,f,1,\n"

	store := newMemStore()
	runImport(t, store, csv, importer.Options{})

	want := map[string]model.ProcedureClass{
		"1": model.ClassElective,
		"2": model.ClassUrgent,
		"3": model.ClassEmergency,
		"4": model.ClassOutpatient,
		"5": model.ClassElective,
		"6": model.ClassElective,
	}
	for code, class := range want {
		if got := store.byCode[code].ProcedureClass; got != class {
			t.Errorf("code %s class = %s, want %s", code, got, class)
		}
	}
}

func TestImport_DuplicateCodeInFile(t *testing.T) {
	csv := "codigo,descricao,valor\nD,first,1\nD,second,2\n"

	t.Run("without_overwrite", func(t *testing.T) {
		store := newMemStore()
		rep := runImport(t, store, csv, importer.Options{})
		assertReport(t, rep, 1, 0, nil)
		if store.byCode["D"].Description != "first" {
			t.Errorf("description = %q, want first", store.byCode["D"].Description)
		}
	})

	t.Run("with_overwrite", func(t *testing.T) {
		store := newMemStore()
		rep := runImport(t, store, csv, importer.Options{Overwrite: true})
		assertReport(t, rep, 1, 1, nil)
		if store.byCode["D"].Description != "second" {
			t.Errorf("description = %q, want second", store.byCode["D"].Description)
		}
	})
}

func TestImport_RequiredColumns(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no_code", "descricao,valor"},
		{"no_description", "codigo sigtap,valor"},
		{"nothing_recognised", "a,b,c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			_, err := importer.Import(context.Background(), store,
				strings.NewReader(tt.header+"\n1,2,3\n"), importer.Options{}, zerolog.Nop())

			var ie *importer.ImportError
			if !errors.As(err, &ie) || ie.Phase != importer.PhaseColumns {
				t.Fatalf("expected columns ImportError, got %v", err)
			}
			if !errors.Is(err, importer.ErrRequiredColumns) || !importer.IsColumnError(err) {
				t.Errorf("expected ErrRequiredColumns, got %v", err)
			}
			if len(store.byCode) != 0 {
				t.Error("nothing may be written when columns are missing")
			}
		})
	}
}

func TestImport_EmptyInput(t *testing.T) {
	_, err := importer.Import(context.Background(), newMemStore(),
		strings.NewReader(""), importer.Options{}, zerolog.Nop())
	var ie *importer.ImportError
	if !errors.As(err, &ie) || ie.Phase != importer.PhaseRead {
		t.Fatalf("expected read ImportError, got %v", err)
	}
}

func TestImport_StoreErrorsAbort(t *testing.T) {
	csv := "codigo,descricao,valor\nOK,a,1\nBAD,b,2\nLATE,c,3\n"

	t.Run("find_failure", func(t *testing.T) {
		store := newMemStore()
		store.failCode = "BAD"
		store.failErr = errors.New("connection reset")

		rep, err := importer.Import(context.Background(), store, strings.NewReader(csv), importer.Options{}, zerolog.Nop())
		if rep != nil {
			t.Errorf("no report may be returned on storage failure, got %+v", rep)
		}
		var ie *importer.ImportError
		if !errors.As(err, &ie) || ie.Phase != importer.PhaseStore {
			t.Fatalf("expected store ImportError, got %v", err)
		}
		if !errors.Is(err, importer.ErrStorage) || !errors.Is(err, store.failErr) {
			t.Errorf("expected ErrStorage wrapping cause, got %v", err)
		}
		if _, ok := store.byCode["LATE"]; ok {
			t.Error("rows after the failure must not be processed")
		}
	})

	t.Run("conflict", func(t *testing.T) {
		store := newMemStore()
		store.failCode = "BAD"
		store.failErr = fmt.Errorf("insert: %w", catalog.ErrConflict)

		_, err := importer.Import(context.Background(), store, strings.NewReader(csv), importer.Options{}, zerolog.Nop())
		if !errors.Is(err, importer.ErrConflict) || !errors.Is(err, importer.ErrStorage) {
			t.Fatalf("expected ErrConflict inside ErrStorage, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := importer.Import(ctx, newMemStore(), strings.NewReader(csv), importer.Options{}, zerolog.Nop())
		if !errors.Is(err, importer.ErrStorage) || !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancelled storage failure, got %v", err)
		}
	})
}

func TestPlanImport(t *testing.T) {
	store := newMemStore()
	runImport(t, store, "codigo,descricao,valor\nE1,existing,1\n", importer.Options{})
	before := store.snapshot()

	csv := "codigo;descricao;valor;descricao longa\n" +
		"E1;changed;2;x\n" +
		"N1;new;3;y\n" +
		"N1;new again;4;z\n" +
		"N2;bad;abc;w\n"

	plan, err := importer.PlanImport(context.Background(), store, strings.NewReader(csv),
		importer.Options{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("PlanImport: %v", err)
	}
	if plan.Delimiter != ';' {
		t.Errorf("delimiter = %q, want ';'", plan.Delimiter)
	}
	if plan.RowsRead != 4 || plan.Skipped != 2 {
		t.Errorf("rows/skipped = %d/%d, want 4/2", plan.RowsRead, plan.Skipped)
	}
	assertReport(t, &plan.Report, 1, 0, []int{5})
	if len(plan.Columns.Ignored) != 1 {
		t.Errorf("expected the second description column to be ignored, got %+v", plan.Columns.Ignored)
	}
	if !reflect.DeepEqual(before, store.snapshot()) {
		t.Error("plan must not write")
	}

	t.Run("nil_finder", func(t *testing.T) {
		plan, err := importer.PlanImport(context.Background(), nil, strings.NewReader(csv),
			importer.Options{Overwrite: true}, zerolog.Nop())
		if err != nil {
			t.Fatalf("PlanImport: %v", err)
		}
		assertReport(t, &plan.Report, 2, 1, []int{5})
	})
}
