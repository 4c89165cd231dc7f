// mkfixture writes a deterministic procedure-code CSV for manual testing.
// Every --fail-every'th row carries a defect (blank code, blank description
// or unparseable price) so the failure paths are exercised too.
// Usage: go run ./cmd/mkfixture --out testdata/sigtap-sample.csv --rows 500
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amecontrol/sigtapload/internal/importer"
	"github.com/amecontrol/sigtapload/internal/model"
)

var (
	descriptions = []string{
		"Consulta medica em atencao especializada",
		"Apendicectomia",
		"Colecistectomia videolaparoscopica",
		"Herniorrafia inguinal unilateral",
		"Biopsia de pele",
		"Artroscopia de joelho",
		"Cesariana",
		"Tireoidectomia total",
	}
	specialties = []string{
		"Cirurgia Geral", "Ortopedia", "Dermatologia", "Obstetricia", "Clinica Geral", "",
	}
	// Raw class text as it appears in spreadsheets, including accents,
	// lower case and values that fall back to the default class.
	classTexts = []string{
		"ELETIVA", "Urgência", "EMERGENCIA", "ambulatorial", "", "Cirurgica",
	}
)

func main() {
	out := flag.String("out", "testdata/sigtap-sample.csv", "output CSV")
	rows := flag.Int("rows", 200, "data rows to write")
	delim := flag.String("delimiter", ";", "field delimiter: ';', ',' or 'tab'")
	failEvery := flag.Int("fail-every", 25, "make every Nth row invalid (0 disables)")
	seed := flag.Int64("seed", 1, "random seed")
	decimalComma := flag.Bool("decimal-comma", true, "write prices with a comma decimal separator")
	check := flag.String("check", "", "only parse this CSV and print the plan, don't write")
	flag.Parse()

	if *check != "" {
		if err := checkFile(*check); err != nil {
			fmt.Fprintf(os.Stderr, "check: %v\n", err)
			os.Exit(1)
		}
		return
	}

	comma, err := parseDelimiter(*delim)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = comma
	w.Write([]string{"Código SIGTAP", "Descrição", "Valor (R$)", "Tipo", "Especialidade"})

	rng := rand.New(rand.NewSource(*seed))
	invalid := 0
	for i := 1; i <= *rows; i++ {
		code := fmt.Sprintf("%010d", 301010000+i*7)
		desc := descriptions[rng.Intn(len(descriptions))]
		price := fmt.Sprintf("%d.%02d", 20+rng.Intn(5000), rng.Intn(100))
		if *decimalComma {
			price = strings.Replace(price, ".", ",", 1)
		}

		if *failEvery > 0 && i%*failEvery == 0 {
			invalid++
			switch (i / *failEvery) % 3 {
			case 0:
				code = ""
			case 1:
				desc = " "
			case 2:
				price = "a combinar"
			}
		}

		w.Write([]string{
			code,
			desc,
			price,
			classTexts[rng.Intn(len(classTexts))],
			specialties[rng.Intn(len(specialties))],
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "write csv: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d rows (%d invalid) to %s\n", *rows, invalid, *out)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case ";":
		return ';', nil
	case ",":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q", s)
}

func checkFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	plan, err := importer.PlanImport(context.Background(), nil, f, importer.Options{}, zerolog.Nop())
	if err != nil {
		return err
	}
	fmt.Printf("Delimiter: %q, rows: %d, would create: %d, would fail: %d\n",
		plan.Delimiter, plan.RowsRead, plan.Report.Created, len(plan.Report.FailedRows))
	reasons := make(map[string]int)
	for _, fl := range plan.Report.Failures {
		reasons[fl.Reason]++
	}
	for _, r := range []string{
		model.ReasonMissingCode, model.ReasonMissingDescription, model.ReasonInvalidPrice,
		model.ReasonShortRow, model.ReasonMalformedRow,
	} {
		if reasons[r] > 0 {
			fmt.Printf("  %-20s %d\n", r, reasons[r])
		}
	}
	return nil
}
